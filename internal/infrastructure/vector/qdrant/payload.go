package qdrant

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

const (
	keyID      = "id"
	keyDocID   = "doc_id"
	keyChunkID = "chunk_id"
	keyText    = "text"
)

// encodePayload flattens metadata next to the known keys. Known keys win.
func encodePayload(p domain.Payload) map[string]any {
	out := make(map[string]any, len(p.Meta)+4)
	for k, v := range p.Meta {
		out[k] = v
	}
	out[keyID] = p.ID
	out[keyDocID] = p.DocID
	out[keyChunkID] = p.ChunkID
	out[keyText] = p.Text
	return out
}

func decodePayload(raw map[string]any) domain.Payload {
	p := domain.Payload{
		ID:      getStringPayload(raw, keyID),
		DocID:   getStringPayload(raw, keyDocID),
		ChunkID: getIntPayload(raw, keyChunkID),
		Text:    getStringPayload(raw, keyText),
	}
	for k, v := range raw {
		switch k {
		case keyID, keyDocID, keyChunkID, keyText:
			continue
		}
		if p.Meta == nil {
			p.Meta = make(map[string]any)
		}
		p.Meta[k] = v
	}
	return p
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// decodePointID accepts both UUID strings and unsigned integer ids.
func decodePointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
