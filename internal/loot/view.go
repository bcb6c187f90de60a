package loot

import "sidescroller-session-engine/internal/room"

// ItemView is the wire shape for a GroundItem, used in monsterKilled's
// drops list, itemPickedUp, and playerItemDropped (§6 egress events).
type ItemView struct {
	ItemID      string                 `json:"itemId"`
	Name        string                 `json:"name"`
	X           float64                `json:"x"`
	Y           float64                `json:"y"`
	DroppedBy   string                 `json:"droppedBy"`
	Amount      *int                   `json:"amount,omitempty"`
	Stats       map[string]interface{} `json:"stats,omitempty"`
	Rarity      string                 `json:"rarity,omitempty"`
	Enhancement int                    `json:"enhancement,omitempty"`
	Quantity    int                    `json:"quantity,omitempty"`
	LevelReq    int                    `json:"levelReq,omitempty"`
	IsQuestItem bool                   `json:"isQuestItem,omitempty"`
	VelocityX   float64                `json:"velocityX"`
	VelocityY   float64                `json:"velocityY"`
}

func ToView(item *room.GroundItem) ItemView {
	return ItemView{
		ItemID:      item.ItemID,
		Name:        item.Name,
		X:           item.X,
		Y:           item.Y,
		DroppedBy:   item.DroppedBy,
		Amount:      item.Amount,
		Stats:       item.Stats,
		Rarity:      item.Rarity,
		Enhancement: item.Enhancement,
		Quantity:    item.Quantity,
		LevelReq:    item.LevelReq,
		IsQuestItem: item.IsQuestItem,
		VelocityX:   item.VelocityX,
		VelocityY:   item.VelocityY,
	}
}

func ViewAll(items []*room.GroundItem) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, ToView(it))
	}
	return out
}
