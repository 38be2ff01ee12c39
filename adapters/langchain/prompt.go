package langchain

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
)

const (
	SystemPrompt  = "You are a helpful assistant that provides clear and concise answers."
	HumanTemplate = "Topic: {topic}\n\nQuestion: {question}"
)

// PromptChain answers a question about a topic with a single model call and no tools.
type PromptChain struct {
	llm      llms.Model
	template prompts.ChatPromptTemplate
	opts     []llms.CallOption
}

// NewPromptChain returns a chain over llm using SystemPrompt and HumanTemplate.
func NewPromptChain(llm llms.Model, opts ...llms.CallOption) *PromptChain {
	return &PromptChain{
		llm: llm,
		template: prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
			prompts.SystemMessagePromptTemplate{Prompt: prompts.PromptTemplate{
				Template:       SystemPrompt,
				TemplateFormat: prompts.TemplateFormatFString,
			}},
			prompts.HumanMessagePromptTemplate{Prompt: prompts.PromptTemplate{
				Template:       HumanTemplate,
				InputVariables: []string{"topic", "question"},
				TemplateFormat: prompts.TemplateFormatFString,
			}},
		}),
		opts: opts,
	}
}

// Messages renders the prompt for topic and question.
func (c *PromptChain) Messages(topic, question string) ([]llms.MessageContent, error) {
	msgs, err := c.template.FormatMessages(map[string]any{
		"topic":    topic,
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llms.TextParts(m.GetType(), m.GetContent()))
	}
	return out, nil
}

// Run returns the text of the first choice. Model errors are returned as is.
func (c *PromptChain) Run(ctx context.Context, topic, question string) (string, error) {
	msgs, err := c.Messages(topic, question)
	if err != nil {
		return "", err
	}
	resp, err := c.llm.GenerateContent(ctx, msgs, c.opts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Content, nil
}
