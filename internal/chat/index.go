package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

// Index is an in-memory full-text index over chat messages
type Index struct {
	idx bleve.Index
}

type indexedMessage struct {
	ChatID  string `json:"chat_id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type indexRef struct {
	chatID string
	pos    int
}

func NewIndex() (*Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create message index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func (i *Index) Add(chatID string, pos int, msg Message) error {
	doc := indexedMessage{
		ChatID:  chatID,
		Role:    string(msg.Role),
		Content: PlainText(msg.Content),
	}
	return i.idx.Index(chatID+":"+strconv.Itoa(pos), doc)
}

func (i *Index) lookup(query string, limit int) ([]indexRef, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	q := bleve.NewMatchQuery(query)
	q.SetField("content")
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)

	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	refs := make([]indexRef, 0, len(res.Hits))
	for _, hit := range res.Hits {
		sep := strings.LastIndex(hit.ID, ":")
		if sep < 0 {
			continue
		}
		pos, err := strconv.Atoi(hit.ID[sep+1:])
		if err != nil {
			continue
		}
		refs = append(refs, indexRef{chatID: hit.ID[:sep], pos: pos})
	}

	return refs, nil
}

func (i *Index) Close() error {
	return i.idx.Close()
}
