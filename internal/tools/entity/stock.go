package entity

// StockSummary holds the live counts of one tool type, in base units
// (instance QtyPerUnit summed). The four counts are computed independently
// and do not partition the instances: a USED instance that is checked out
// counts toward InUse and Total but not AvailableUsed.
type StockSummary struct {
	ToolTypeID    string `json:"tool_type_id" gorm:"column:tool_type_id"`
	New           int    `json:"new_count" gorm:"column:new_count"`
	AvailableUsed int    `json:"available_used_count" gorm:"column:available_used_count"`
	InUse         int    `json:"in_use_count" gorm:"column:in_use_count"`
	Total         int    `json:"total_count" gorm:"column:total_count"`
}
