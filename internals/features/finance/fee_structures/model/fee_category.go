// file: internals/features/finance/fee_structures/model/fee_category.go
package model

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

/* ==============================
   FEE CATEGORY
============================== */

type FeeCategory string

const (
	CategorySchool    FeeCategory = "school"
	CategoryTransport FeeCategory = "transport"
	CategoryMess      FeeCategory = "mess"
	CategoryHostel    FeeCategory = "hostel"
	CategoryItem      FeeCategory = "item"
	CategoryOther     FeeCategory = "other"
)

// Only school and transport fees are reduced by the student-type discount.
func (c FeeCategory) DiscountEligible() bool {
	return c == CategorySchool || c == CategoryTransport
}

func (c FeeCategory) Label() string {
	switch c {
	case CategorySchool:
		return "School"
	case CategoryTransport:
		return "Transport"
	case CategoryMess:
		return "Mess"
	case CategoryHostel:
		return "Hostel"
	case CategoryItem:
		return "Item"
	default:
		return "Other"
	}
}

func (c FeeCategory) Valid() bool {
	switch c {
	case CategorySchool, CategoryTransport, CategoryMess, CategoryHostel, CategoryItem, CategoryOther:
		return true
	}
	return false
}

// payment feeType -> category
var paymentFeeTypes = map[string]FeeCategory{
	"school":       CategorySchool,
	"schoolfee":    CategorySchool,
	"tuition":      CategorySchool,
	"tuitionfee":   CategorySchool,
	"transport":    CategoryTransport,
	"transportfee": CategoryTransport,
	"bus":          CategoryTransport,
	"busfee":       CategoryTransport,
	"mess":         CategoryMess,
	"messfee":      CategoryMess,
	"hostel":       CategoryHostel,
	"hostelfee":    CategoryHostel,
	"item":         CategoryItem,
	"items":        CategoryItem,
	"itemfee":      CategoryItem,
	"other":        CategoryOther,
	"otherfee":     CategoryOther,
}

// fee-structure entry name -> category; anything not listed is a school fee
var structureFeeTypes = map[string]FeeCategory{
	"transport":    CategoryTransport,
	"transportfee": CategoryTransport,
	"bus":          CategoryTransport,
	"busfee":       CategoryTransport,
	"hostel":       CategoryHostel,
	"hostelfee":    CategoryHostel,
	"mess":         CategoryMess,
	"messfee":      CategoryMess,
}

// CategoryOfFeeType maps a payment feeType. Unknown values fall into Other.
func CategoryOfFeeType(feeType string) FeeCategory {
	if c, ok := paymentFeeTypes[lookupKey(feeType)]; ok {
		return c
	}
	return CategoryOther
}

// CategoryOfStructureEntry maps a fee-structure entry name such as "Tuition" or "BusFee".
func CategoryOfStructureEntry(name string) FeeCategory {
	if c, ok := structureFeeTypes[lookupKey(name)]; ok {
		return c
	}
	return CategorySchool
}

func lookupKey(s string) string {
	s = strings.ToLower(NormalizeName(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.':
			return -1
		}
		return r
	}, s)
}

/* ==============================
   NAMES
============================== */

var spaces = regexp.MustCompile(`\s+`)

// NormalizeName trims, collapses inner whitespace and applies NFC.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

/* ==============================
   ACADEMIC YEAR
============================== */

var academicYearRe = regexp.MustCompile(`^\d{2}-\d{2}$`)

// ValidAcademicYear accepts "YY-YY" where the second half follows the first ("24-25", "99-00").
func ValidAcademicYear(s string) bool {
	if !academicYearRe.MatchString(s) {
		return false
	}
	a, _ := strconv.Atoi(s[:2])
	b, _ := strconv.Atoi(s[3:])
	return b == (a+1)%100
}

// AcademicYearLess compares the "YY-YY" strings as plain strings, so "00-01" sorts before "99-00".
func AcademicYearLess(a, b string) bool {
	return a < b
}
