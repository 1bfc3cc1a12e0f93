package domain

import (
	"fmt"
	"strings"
)

type BerthType string

const (
	BerthLower      BerthType = "LB"
	BerthMiddle     BerthType = "MB"
	BerthUpper      BerthType = "UB"
	BerthSideLower  BerthType = "SLB"
	BerthSideUpper  BerthType = "SUB"
	BerthPreferNone BerthType = "ANY"
)

// BerthTypes lists the positional berth types in layout order.
var BerthTypes = []BerthType{BerthLower, BerthMiddle, BerthUpper, BerthSideLower, BerthSideUpper}

func ParseBerthPreference(s string) (BerthType, bool) {
	v := BerthType(strings.ToUpper(strings.TrimSpace(s)))
	if v == "" || v == BerthPreferNone {
		return BerthPreferNone, true
	}
	for _, t := range BerthTypes {
		if t == v {
			return v, true
		}
	}
	return "", false
}

type BerthSlot struct {
	Coach  string    `json:"coach"`
	Number int       `json:"number"`
	Type   BerthType `json:"type"`
}

// Label renders the berth the way tickets print it, e.g. "14UB".
func (b BerthSlot) Label() string {
	return fmt.Sprintf("%d%s", b.Number, b.Type)
}
