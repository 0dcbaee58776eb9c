package chatgpt

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

type Summary struct {
	Conversations int       `json:"conversations"`
	WithoutID     int       `json:"withoutId"`
	EmptyMapping  int       `json:"emptyMapping"`
	Nodes         int       `json:"nodes"`
	MessageNodes  int       `json:"messageNodes"`
	Roles         RoleTally `json:"roles"`
	IDs           []string  `json:"-"`
}

type RoleTally map[string]int

// Summarize scans an export without decoding it into structs.
func Summarize(data []byte) (*Summary, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("inspect export: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("inspect export: expected a JSON array of conversations")
	}
	s := &Summary{Roles: RoleTally{}}
	root.ForEach(func(_, conv gjson.Result) bool {
		s.Conversations++
		if id := conv.Get("id").String(); id != "" {
			s.IDs = append(s.IDs, id)
		} else {
			s.WithoutID++
		}
		mapping := conv.Get("mapping")
		nodes := 0
		mapping.ForEach(func(_, n gjson.Result) bool {
			nodes++
			msg := n.Get("message")
			if msg.IsObject() && !isFalsy(msg) {
				s.MessageNodes++
				if role := msg.Get("author.role").String(); role != "" {
					s.Roles[role]++
				}
			}
			return true
		})
		if nodes == 0 {
			s.EmptyMapping++
		}
		s.Nodes += nodes
		return true
	})
	return s, nil
}
