// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package asset

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Status values used by the inventory sheet.
const (
	StatusUsable    = "ใช้งานได้"
	StatusBroken    = "ชำรุด"
	StatusRepair    = "ส่งซ่อม"
	StatusWorn      = "เสื่อมสภาพ"
	StatusExpired   = "หมดอายุการใช้งาน"
	StatusUnsupport = "ไม่รองรับการใช้งาน"
)

// StatusOptions lists the selectable statuses in display order.
var StatusOptions = []string{StatusUsable, StatusBroken, StatusRepair, StatusWorn, StatusExpired, StatusUnsupport}

// Locations lists the rooms offered when approving a pending item.
var Locations = []string{"501", "502", "503", "401", "401A", "401B", "401C", "402", "403", "404", "405", "ห้องพักครู", "301", "302"}

// StatusClass groups a free-text status for colouring.
type StatusClass int

const (
	ClassUnknown StatusClass = iota
	ClassOK
	ClassBroken
	ClassRepair
)

// ClassifyStatus maps a status to its display class.
func ClassifyStatus(status string) StatusClass {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case strings.Contains(s, StatusUsable):
		return ClassOK
	case strings.Contains(s, StatusBroken), strings.Contains(s, StatusWorn):
		return ClassBroken
	case strings.Contains(s, "ซ่อม"):
		return ClassRepair
	}
	return ClassUnknown
}

var sheetDate = regexp.MustCompile(`Date\(([^)]+)\)`)

// FormatDate renders a sheet date cell as dd/mm/yyyy in the Buddhist era.
// The visualization API encodes dates as "Date(y,m,d[,h,m,s])" with a
// zero-based month; other values are returned as-is and blanks become "-".
// Dates in 1899 are the sheet's empty-time epoch and render as "-".
func FormatDate(v string) string {
	if strings.TrimSpace(v) == "" || strings.Contains(v, "1899") {
		return Blank
	}
	m := sheetDate.FindStringSubmatch(v)
	if m == nil {
		return v
	}
	parts := strings.Split(m[1], ",")
	if len(parts) < 3 {
		return v
	}
	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return v
		}
		nums[i] = n
	}
	return fmt.Sprintf("%02d/%02d/%d", nums[2], nums[1]+1, nums[0]+543)
}

// FormatTime renders a time cell as HH:MM.
func FormatTime(v string) string {
	if strings.TrimSpace(v) == "" {
		return Blank
	}
	if m := sheetDate.FindStringSubmatch(v); m != nil {
		parts := strings.Split(m[1], ",")
		if len(parts) >= 5 {
			h, errH := strconv.Atoi(strings.TrimSpace(parts[3]))
			mi, errM := strconv.Atoi(strings.TrimSpace(parts[4]))
			if errH == nil && errM == nil {
				return fmt.Sprintf("%02d:%02d", h, mi)
			}
		}
		return v
	}
	if strings.Contains(v, ":") && len(v) >= 5 {
		return v[:5]
	}
	return v
}
