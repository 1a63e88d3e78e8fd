package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Marshal renders the knowledge base as indented UTF-8 JSON. HTML
// escaping is disabled so CJK text and URLs stay readable in the output
// file.
func Marshal(k *KnowledgeBase) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(k); err != nil {
		return nil, fmt.Errorf("encoding knowledge base: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the knowledge base snapshot to path.
func Save(k *KnowledgeBase, path string) error {
	data, err := Marshal(k)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing knowledge base to %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved knowledge base snapshot.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge base %s: %w", path, err)
	}
	var k KnowledgeBase
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parsing knowledge base %s: %w", path, err)
	}
	return &k, nil
}
