package relevance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/LJTian/DistrictNews/internal/article"
	ollama "github.com/ollama/ollama/api"
)

const promptContentRunes = 400

const systemPrompt = "You are a precise news relevance classifier for the state of Karnataka, India. You only answer with JSON."

const promptTemplate = `District: %s

Below is a JSON array of news articles. Keep ONLY the articles that are genuinely about the district above:
events, people, places or administration located in that district. Drop articles about other districts,
other states, or national news that merely mentions the district in passing.

Respond with a JSON object of the form {"articles":[{"id":"...","headline":"..."}]}.
Copy every id exactly as given. Respond with {"articles":[]} when nothing is relevant.

Articles:
%s`

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// OllamaClassifier 基于本地 Ollama 模型的相关性分类器
type OllamaClassifier struct {
	Model   string
	Client  *ollama.Client
	Timeout time.Duration
}

// NewOllamaClassifier 从 OLLAMA_HOST 环境变量构造客户端
func NewOllamaClassifier(model string, timeout time.Duration) (*OllamaClassifier, error) {
	client, err := ollama.ClientFromEnvironment()
	if err != nil {
		return nil, err
	}
	return &OllamaClassifier{Model: model, Client: client, Timeout: timeout}, nil
}

type promptArticle struct {
	ID       string `json:"id"`
	Headline string `json:"headline"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
}

func (o *OllamaClassifier) Classify(ctx context.Context, req ClassifyRequest) (ClassifyResponse, error) {
	payload := make([]promptArticle, 0, len(req.Articles))
	for _, a := range req.Articles {
		p := promptArticle{ID: a.ID, Headline: a.Headline, Source: a.Source}
		if a.Content != nil {
			p.Content = trimRunes(*a.Content, promptContentRunes)
		}
		payload = append(payload, p)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ClassifyResponse{}, err
	}

	if o.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Timeout)
		defer cancel()
	}

	stream := false
	var response strings.Builder
	err = o.Client.Generate(ctx, &ollama.GenerateRequest{
		Model:  o.Model,
		System: systemPrompt,
		Prompt: fmt.Sprintf(promptTemplate, req.District, body),
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
		Options: map[string]interface{}{
			"temperature": 0.2,
		},
	}, func(res ollama.GenerateResponse) error {
		response.WriteString(res.Response)
		return nil
	})
	if err != nil {
		return ClassifyResponse{}, fmt.Errorf("ollama generate: %w", err)
	}

	return parseClassification(response.String())
}

// parseClassification 模型输出可能带 <think> 块或代码围栏，只取最外层 JSON 对象；
// 每条结果只读取 id 和 headline
func parseClassification(raw string) (ClassifyResponse, error) {
	text := strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ClassifyResponse{}, errors.New("classifier output has no json object")
	}

	var parsed struct {
		Articles []struct {
			ID       string `json:"id"`
			Headline string `json:"headline"`
		} `json:"articles"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return ClassifyResponse{}, fmt.Errorf("decode classifier output: %w", err)
	}

	out := ClassifyResponse{Articles: make([]article.Article, 0, len(parsed.Articles))}
	for _, a := range parsed.Articles {
		if a.ID == "" {
			continue
		}
		out.Articles = append(out.Articles, article.Article{ID: a.ID, Headline: a.Headline})
	}
	return out, nil
}

func trimRunes(s string, limit int) string {
	rs := []rune(strings.TrimSpace(s))
	if len(rs) <= limit {
		return string(rs)
	}
	return string(rs[:limit])
}
