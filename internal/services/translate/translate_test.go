package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "en", want: "en"},
		{input: "PT-br", want: "pt"},
		{input: "en_US", want: "en"},
		{input: " es ", want: "es"},
		{input: "zh-Hant", want: "zh"},
		{input: "auto", want: "auto"},
		{input: "AUTO", want: "auto"},
		{input: "", wantErr: true},
		{input: "not a language", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeLanguage(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Portuguese", LanguageName("pt"))
	assert.Equal(t, "English", LanguageName("en"))
	assert.Equal(t, "the detected source language", LanguageName(AutoDetect))
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want []string
	}{
		{"short text is one chunk", "hello", 10, []string{"hello"}},
		{"empty text", "", 10, nil},
		{"packs paragraphs", "aaa\n\nbbb\n\nccc", 8, []string{"aaa\n\n", "bbb\n\nccc"}},
		{"falls back to lines", "aaaa\nbbbb\ncccc", 10, []string{"aaaa\nbbbb\n", "cccc"}},
		{"falls back to words", "one two three", 8, []string{"one two ", "three"}},
		{"hard cut", "abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"keeps runes whole", "ééé", 3, []string{"é", "é", "é"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunk(tt.text, tt.max)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.text, strings.Join(got, ""))
		})
	}
}

func TestChunk_RespectsMax(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 200)
	for _, c := range Chunk(text, 500) {
		assert.LessOrEqual(t, len(c), 500)
	}
}

// upperTranslator "translates" by upper-casing and records each call.
type upperTranslator struct {
	calls []string
	err   error
}

func (u *upperTranslator) Name() string { return "upper" }

func (u *upperTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	u.calls = append(u.calls, text)
	if u.err != nil {
		return "", u.err
	}
	return strings.ToUpper(text), nil
}

func TestTranslateLong(t *testing.T) {
	tr := &upperTranslator{}
	got, err := TranslateLong(context.Background(), tr, "aaa\n\nbbb\n\nccc", "auto", "en", 8)
	require.NoError(t, err)

	assert.Equal(t, "AAA\n\nBBB\n\nCCC", got)
	assert.Equal(t, []string{"aaa", "bbb\n\nccc"}, tr.calls)
}

func TestTranslateLong_SkipsBlankChunks(t *testing.T) {
	tr := &upperTranslator{}
	got, err := TranslateLong(context.Background(), tr, "  \n ", "auto", "en", 100)
	require.NoError(t, err)
	assert.Equal(t, "  \n ", got)
	assert.Empty(t, tr.calls)
}

func TestTranslateLong_Error(t *testing.T) {
	tr := &upperTranslator{err: errors.New("boom")}
	_, err := TranslateLong(context.Background(), tr, "hello", "auto", "en", 100)
	assert.ErrorContains(t, err, "boom")
}

func TestTranslateLong_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TranslateLong(ctx, &upperTranslator{}, "hello", "auto", "en", 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPTranslator(t *testing.T) {
	var got httpRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"translatedText": "Olá mundo"})
	}))
	defer srv.Close()

	tr := NewHTTP(srv.URL, "secret")
	out, err := tr.Translate(context.Background(), "Hello world", "en", "pt")
	require.NoError(t, err)

	assert.Equal(t, "Olá mundo", out)
	assert.Equal(t, httpRequest{Q: "Hello world", Source: "en", Target: "pt", Format: "text", APIKey: "secret"}, got)
	assert.Equal(t, "http", tr.Name())
}

func TestHTTPTranslator_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"xx is not supported"}`))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "").Translate(context.Background(), "hi", "en", "xx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "xx is not supported")
}

func TestHTTPTranslator_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.URL, "").Translate(context.Background(), "hi", "en", "pt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestHTTPTranslator_NotConfigured(t *testing.T) {
	_, err := NewHTTP("", "").Translate(context.Background(), "hi", "en", "pt")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type fakeChat struct {
	input []*schema.Message
	reply string
}

func (f *fakeChat) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return schema.AssistantMessage(f.reply, nil), nil
}

func TestLLMTranslator(t *testing.T) {
	chat := &fakeChat{reply: "Bonjour"}
	tr := &LLMTranslator{chat: chat, modelName: "test-model"}

	out, err := tr.Translate(context.Background(), "Hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", out)

	require.Len(t, chat.input, 2)
	assert.Equal(t, schema.System, chat.input[0].Role)
	assert.Contains(t, chat.input[0].Content, "from English to French")
	assert.Equal(t, schema.User, chat.input[1].Role)
	assert.Equal(t, "Hello", chat.input[1].Content)
}

func TestLLMTranslator_EmptyReply(t *testing.T) {
	tr := &LLMTranslator{chat: &fakeChat{reply: "  "}, modelName: "test-model"}
	_, err := tr.Translate(context.Background(), "Hello", "en", "fr")
	assert.Error(t, err)
}

func TestLLMTranslator_NoKey(t *testing.T) {
	tr, err := NewLLM(context.Background(), "", "", "some-model")
	require.NoError(t, err)

	_, err = tr.Translate(context.Background(), "Hello", "en", "fr")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
