package dauchez

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"dauchez-konnector/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

type Bill struct {
	// UTC midnight of the billing day
	Date   time.Time
	Title  string
	Amount float64
	// path of the downloadable document, relative to the extranet
	// root; empty when the row carries no link
	FileUrl string
}

// ParseDate parses the extranet's dd/mm/yyyy cells into UTC midnight
// of that calendar day.
func ParseDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	date, err := time.ParseInLocation("02/01/2006", text, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse bill date %q: %w", text, err)
	}
	return date, nil
}

// ParseAmount parses a French locale amount such as "1 234,56". The
// thousands separator can be a regular or a non-breaking space.
func ParseAmount(text string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse bill amount %q: %w", text, err)
	}
	return value, nil
}

// the listing table's column layout: date, -, title, amount, -, link
func billFromRow(row *goquery.Selection) (Bill, error) {
	cells := row.Find("td")
	if cells.Length() < 6 {
		return Bill{}, fmt.Errorf("expected at least 6 cells in a bill row, got %d", cells.Length())
	}

	date, err := ParseDate(htmlutil.CleanText(cells.Eq(0).Text()))
	if err != nil {
		return Bill{}, err
	}
	amount, err := ParseAmount(cells.Eq(3).Text())
	if err != nil {
		return Bill{}, err
	}

	return Bill{
		Date:    date,
		Title:   htmlutil.CleanText(cells.Eq(2).Text()),
		Amount:  amount,
		FileUrl: cells.Eq(5).Find("span > a").AttrOr("href", ""),
	}, nil
}

// ExtractBills converts the listing table into bills, skipping the
// header (first) and totals (last) rows. Output order follows the
// table's row order.
func ExtractBills(doc *goquery.Document) ([]Bill, error) {
	rows := doc.Find("table > tbody > tr")

	var bills []Bill
	var errs []error
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 || i == rows.Length()-1 {
			return
		}
		bill, err := billFromRow(row)
		if err != nil {
			errs = append(errs, err)
			return
		}
		bills = append(bills, bill)
	})

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return bills, nil
}
