package protocol

import "encoding/json"

// Classify parses a mailbox payload into a Message. It is total: malformed
// JSON, non-object JSON, and objects without a string "type" tag all
// classify as plain text carrying the original payload. It never fails;
// malformed input is data, not a fault.
func Classify(payload string) Message {
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil || raw == nil {
		return plainText(payload)
	}

	typeTag, ok := raw["type"].(string)
	if !ok || typeTag == "" {
		return plainText(payload)
	}

	text, _ := raw["text"].(string)

	return Message{
		Type:   typeTag,
		Text:   text,
		Fields: raw,
	}
}

func plainText(payload string) Message {
	return Message{
		Type: TypePlainText,
		Text: payload,
	}
}
