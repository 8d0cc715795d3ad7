package models

import "testing"

func TestOrderLine_QtyRemaining(t *testing.T) {
	cases := []struct {
		name string
		line OrderLine
		want int
	}{
		{"nothing applied", OrderLine{QtyOrdered: 10}, 10},
		{"partially picked", OrderLine{QtyOrdered: 10, QtyPicked: 4}, 6},
		{"picked and short", OrderLine{QtyOrdered: 10, QtyPicked: 4, QtyShort: 3}, 3},
		{"fully satisfied", OrderLine{QtyOrdered: 10, QtyPicked: 10}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.line.QtyRemaining(); got != c.want {
				t.Errorf("QtyRemaining() = %d, want %d", got, c.want)
			}
		})
	}
}

func TestOrderLine_Done(t *testing.T) {
	cases := []struct {
		name string
		line OrderLine
		want bool
	}{
		{"untouched", OrderLine{QtyOrdered: 10}, false},
		{"partially picked", OrderLine{QtyOrdered: 10, QtyPicked: 4}, false},
		{"fully picked", OrderLine{QtyOrdered: 10, QtyPicked: 10}, true},
		{"fully short", OrderLine{QtyOrdered: 10, QtyShort: 10}, true},
		{"mixed picked and short covering demand", OrderLine{QtyOrdered: 10, QtyPicked: 6, QtyShort: 4}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.line.Done(); got != c.want {
				t.Errorf("Done() = %v, want %v", got, c.want)
			}
		})
	}
}
