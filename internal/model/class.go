package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/yolo-labeler/internal/common"
)

// Class is one entry of the ordered class list. Its index is its position.
type Class struct {
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
}

// DefaultClasses is offered when the stored class list cannot be used.
func DefaultClasses() []Class {
	return []Class{
		{Name: "Person", Instructions: "Label the entire person from head to toe"},
		{Name: "Car", Instructions: "Label the entire vehicle"},
		{Name: "Animal", Instructions: "Label any animal completely"},
	}
}

// ClassName returns the name at idx, or a placeholder for unknown indexes.
func ClassName(classes []Class, idx int) string {
	if idx >= 0 && idx < len(classes) {
		return classes[idx].Name
	}
	return fmt.Sprintf("Class %d", idx)
}

// FindClass returns the index of the class whose name equals name, ignoring
// case, or -1.
func FindClass(classes []Class, name string) int {
	for i, c := range classes {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// DecodeClasses normalizes a class list payload. Entries may be plain
// strings or objects carrying "name" or "class_name"; anything else becomes
// "Class N". A payload that is not a JSON array is rejected.
func DecodeClasses(raw []byte) ([]Class, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: class list is not an array: %v", common.ErrMalformedPayload, err)
	}
	if entries == nil {
		return nil, fmt.Errorf("%w: class list is null", common.ErrMalformedPayload)
	}

	classes := make([]Class, 0, len(entries))
	for i, entry := range entries {
		classes = append(classes, decodeClass(entry, i))
	}
	return classes, nil
}

func decodeClass(entry json.RawMessage, index int) Class {
	var name string
	if err := json.Unmarshal(entry, &name); err == nil {
		return Class{Name: name}
	}

	var obj struct {
		Name         string `json:"name"`
		ClassName    string `json:"class_name"`
		Instructions string `json:"instructions"`
	}
	if err := json.Unmarshal(entry, &obj); err != nil {
		return Class{Name: fmt.Sprintf("Class %d", index)}
	}

	c := Class{Name: obj.Name, Instructions: obj.Instructions}
	if c.Name == "" {
		c.Name = obj.ClassName
	}
	if c.Name == "" {
		c.Name = fmt.Sprintf("Class %d", index)
	}
	return c
}
