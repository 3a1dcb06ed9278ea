package tts

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	gtranslateURL = "https://translate.google.com"
	// MaxChunkLength is the longest text the translate endpoint speaks in one
	// request.
	MaxChunkLength = 100
)

// GTranslateProvider uses the keyless Google Translate speech endpoint. Long
// text is split on word boundaries and the mp3 chunks are concatenated.
type GTranslateProvider struct {
	baseURL string
	client  *http.Client
}

func NewGTranslateProvider(baseURL string, client *http.Client) *GTranslateProvider {
	return &GTranslateProvider{baseURL: baseURLOr(baseURL, gtranslateURL), client: client}
}

func (p *GTranslateProvider) Name() string { return string(EngineGTranslate) }

func (p *GTranslateProvider) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	chunks := ChunkText(text, MaxChunkLength)
	var audio bytes.Buffer
	for i, chunk := range chunks {
		q := url.Values{}
		q.Set("ie", "UTF-8")
		q.Set("client", "tw-ob")
		q.Set("tl", lang)
		q.Set("q", chunk)
		q.Set("total", strconv.Itoa(len(chunks)))
		q.Set("idx", strconv.Itoa(i))
		q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/translate_tts?"+q.Encode(), nil)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")
		req.Header.Set("Referer", p.baseURL+"/")

		data, err := fetch(p.client, p.Name(), req)
		if err != nil {
			return nil, err
		}
		audio.Write(data)
	}
	return audio.Bytes(), nil
}

// ChunkText splits text into pieces of at most limit runes, breaking on
// whitespace. A single word longer than limit is split inside the word.
func ChunkText(text string, limit int) []string {
	words := strings.Fields(text)
	if limit <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range words {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		n := len(runes)
		if n == 0 {
			continue
		}
		if currentLen > 0 && currentLen+1+n > limit {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(string(runes))
		currentLen += n
	}
	flush()
	return chunks
}
