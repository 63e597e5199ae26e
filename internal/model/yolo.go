package model

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// FormatYOLO renders records as YOLO label-file lines.
func FormatYOLO(rec AnnotationRecord) string {
	var sb strings.Builder
	for i, b := range rec.Boxes {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d %.6f %.6f %.6f %.6f", b.Class, b.XCenter, b.YCenter, b.Width, b.Height)
	}
	return sb.String()
}

// ParseYOLO reads YOLO label-file lines. Blank lines and lines that do not
// have exactly five numeric fields are skipped.
func ParseYOLO(text string) AnnotationRecord {
	rec := AnnotationRecord{Boxes: []YOLORecord{}}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 5 {
			continue
		}

		class, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}

		var vals [4]float64
		ok := true
		for i := range vals {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		rec.Boxes = append(rec.Boxes, YOLORecord{
			Class:   class,
			XCenter: vals[0],
			YCenter: vals[1],
			Width:   vals[2],
			Height:  vals[3],
		})
	}
	return rec
}
