package entity

type Group struct {
	ID    string
	Label string
	Color string
}

func NewGroup(id, label, color string) *Group {
	return &Group{ID: id, Label: label, Color: color}
}
