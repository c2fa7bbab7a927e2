package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// Academic periods within one academic year, in order. 1A/1B form the first
// semester, 2A/2B the second, 3 is the summer term. The aggregate period
// names SEM1, SEM2 and JAAR (full year) appear in exports alongside the
// ten-week periods.
var periodOrder = map[string]int{
	"1A": 1,
	"1B": 2,
	"2A": 3,
	"2B": 4,
	"3":  5,
}

var orderPeriod = map[int]string{
	1: "1A",
	2: "1B",
	3: "2A",
	4: "2B",
	5: "3",
}

// AllPeriodSuffixes lists every period name of an academic year, aggregates
// included.
var AllPeriodSuffixes = []string{"1A", "1B", "2A", "2B", "3", "SEM1", "SEM2", "JAAR"}

// parsePeriod splits "2023-1A" into its academic year and period.
func parsePeriod(s string) (year int, period string, err error) {
	yearStr, periodStr, ok := strings.Cut(s, "-")
	if !ok {
		return 0, "", fmt.Errorf("invalid period %q (want YYYY-PP)", s)
	}
	year, err = strconv.Atoi(yearStr)
	if err != nil {
		return 0, "", fmt.Errorf("invalid period year in %q", s)
	}
	if _, ok := periodOrder[periodStr]; !ok {
		return 0, "", fmt.Errorf("invalid period %q in %q", periodStr, s)
	}
	return year, periodStr, nil
}

// ExpandRange expands an inclusive period range into the full set of period
// values it covers.
//
// Years are academic years ("2023" runs September 2023 to August 2024).
// Beyond the ten-week periods themselves, the set includes the aggregate
// names an export may use: SEM1 when the first semester is covered, SEM2
// when the second is, JAAR when the whole year is, and the summer term 3
// whenever a 2B end is covered.
func ExpandRange(start, end string) (map[string]bool, error) {
	startYear, startPeriod, err := parsePeriod(start)
	if err != nil {
		return nil, err
	}
	endYear, endPeriod, err := parsePeriod(end)
	if err != nil {
		return nil, err
	}
	if startYear > endYear || (startYear == endYear && periodOrder[startPeriod] > periodOrder[endPeriod]) {
		return nil, fmt.Errorf("period range %s..%s runs backward", start, end)
	}

	set := make(map[string]bool)
	for year := startYear; year <= endYear; year++ {
		first, last := 1, 5
		if year == startYear {
			first = periodOrder[startPeriod]
		}
		if year == endYear {
			last = periodOrder[endPeriod]
		}

		for i := first; i <= last; i++ {
			set[fmt.Sprintf("%d-%s", year, orderPeriod[i])] = true
		}
		if first <= 2 && last >= 2 {
			set[fmt.Sprintf("%d-SEM1", year)] = true
		}
		if first <= 4 && last >= 4 {
			set[fmt.Sprintf("%d-SEM2", year)] = true
		}
		if first <= 2 && last >= 4 {
			set[fmt.Sprintf("%d-JAAR", year)] = true
		}
		if last >= 4 {
			set[fmt.Sprintf("%d-3", year)] = true
		}
	}
	return set, nil
}

// PeriodSet builds a period filter from an explicit list of period values.
// Values are taken as-is; use ExpandRange for range expansion.
func PeriodSet(periods []string) map[string]bool {
	set := make(map[string]bool, len(periods))
	for _, p := range periods {
		set[p] = true
	}
	return set
}

// YearPeriods returns every period value of one academic year, aggregates
// included. Used when ingesting a full-year export.
func YearPeriods(year int) map[string]bool {
	set := make(map[string]bool, len(AllPeriodSuffixes))
	for _, suffix := range AllPeriodSuffixes {
		set[fmt.Sprintf("%d-%s", year, suffix)] = true
	}
	return set
}
