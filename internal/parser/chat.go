package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/travelkb/kbuilder/internal/kb"
)

// roleSynonyms maps the role labels found in real chat exports onto the
// two canonical roles. Unknown labels pass through as-is.
var roleSynonyms = map[string]string{
	"customer": kb.RoleCustomer,
	"user":     kb.RoleCustomer,
	"客户":       kb.RoleCustomer,
	"顾客":       kb.RoleCustomer,
	"买家":       kb.RoleCustomer,
	"agent":    kb.RoleAgent,
	"staff":    kb.RoleAgent,
	"客服":       kb.RoleAgent,
	"顾问":       kb.RoleAgent,
	"卖家":       kb.RoleAgent,
}

// ParseChats reads a chat-transcript file (.json or .txt) into
// conversations.
func ParseChats(path string) ([]kb.Conversation, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseChatsJSON(path)
	case ".txt":
		return parseChatsText(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// parseChatsJSON accepts three shapes: a list of session objects, a
// mapping from session id to session object, or a single session object
// carrying a messages array.
func parseChatsJSON(path string) ([]kb.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing chats json %s: %w", path, err)
	}

	var convs []kb.Conversation
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if session, ok := item.(map[string]any); ok {
				convs = append(convs, toConversation(session, ""))
			}
		}
	case map[string]any:
		if _, hasMessages := v["messages"]; hasMessages {
			convs = append(convs, toConversation(v, ""))
			break
		}
		for sessionID, item := range v {
			if session, ok := item.(map[string]any); ok {
				convs = append(convs, toConversation(session, sessionID))
			}
		}
	default:
		return nil, fmt.Errorf("chats json %s: expected array or object", path)
	}
	return convs, nil
}

func toConversation(session map[string]any, sessionID string) kb.Conversation {
	if sessionID == "" {
		sessionID = asString(session["session_id"])
	}
	if sessionID == "" {
		sessionID = asString(session["id"])
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conv := kb.Conversation{SessionID: sessionID}
	msgs, _ := session["messages"].([]any)
	for _, m := range msgs {
		msg, ok := m.(map[string]any)
		if !ok {
			continue
		}
		conv.Messages = append(conv.Messages, kb.Message{
			Role:      normalizeRole(asString(msg["role"])),
			Content:   asString(msg["content"]),
			Timestamp: asString(msg["timestamp"]),
		})
	}
	return conv
}

func normalizeRole(role string) string {
	lower := strings.ToLower(strings.TrimSpace(role))
	if canonical, ok := roleSynonyms[lower]; ok {
		return canonical
	}
	return lower
}

// headerLine matches the "2025-01-15 10:30:00 sender" line of a chat
// export; the following line holds the message content.
var headerLine = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})\s+(.+)$`)

// parseChatsText parses the plain-text export format: a timestamp+sender
// header line followed by one content line, repeated. Malformed pairs
// are skipped.
func parseChatsText(path string) ([]kb.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lines := strings.Split(decodeBestEffort(data), "\n")
	conv := kb.Conversation{SessionID: "chat_export"}

	for i := 0; i < len(lines); i++ {
		m := headerLine.FindStringSubmatch(strings.TrimSpace(lines[i]))
		if m == nil || i+1 >= len(lines) {
			if m != nil {
				log.Debug().Str("file", path).Int("line", i+1).Msg("header without content line, skipped")
			}
			continue
		}
		sender := m[2]
		role := kb.RoleCustomer
		if strings.Contains(sender, "客服") || strings.Contains(sender, "顾问") {
			role = kb.RoleAgent
		}
		conv.Messages = append(conv.Messages, kb.Message{
			Role:      role,
			Content:   strings.TrimSpace(lines[i+1]),
			Timestamp: m[1],
		})
		i++
	}

	if len(conv.Messages) == 0 {
		return nil, nil
	}
	return []kb.Conversation{conv}, nil
}
