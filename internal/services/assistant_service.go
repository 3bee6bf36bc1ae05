package services

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/llm"
	"astrawise/internal/logger"
	"astrawise/internal/models"
)

// maxClassifyRetries bounds classification attempts before the query is
// rejected as unclassifiable.
const maxClassifyRetries = 3

// retrievalErrorText is returned inline when the retrieval step fails; the
// pipeline still completes with a degraded answer.
const retrievalErrorText = "Error retrieving data."

// deflectionText answers off-topic and suspicious queries without any
// completion call beyond classification.
const deflectionText = "I specialize in personal finance! Try asking me about budgeting, savings, expenses, or your transactions. I'd be happy to help! 💰😊"

// fallbackText covers the case where a branch produced no usable text.
const fallbackText = "I'm sorry, I don't have an answer to that question."

// queryCategory is the classifier's fixed vocabulary.
type queryCategory string

const (
	categoryGreeting     queryCategory = "greeting"
	categoryGeneral      queryCategory = "general"
	categoryPersonalized queryCategory = "personalized"
	categoryOffTopic     queryCategory = "offtopic"
	categorySuspicious   queryCategory = "suspicious"
)

const classifyPrompt = `You are a personal finance AI tool query classifier. Analyze the user query and classify it into exactly one of the predefined categories based on its intent. Respond with only the category name.

Categories:
1. "GREETING"
2. "GENERAL_FINANCE" - general or personal finance questions that need no user data
3. "USER_ACCOUNTS_AND_TRANSACTIONS" - bank accounts, balances, affordability, expenditures, income, merchants; includes questions like "Can I afford a trip to X?"
4. "CYBER_ATTACK" - fraud, scam, or unauthorized access attempts
5. "OTHER_OR_UNRELATED"`

const greetingPrompt = `Generate a concise, friendly greeting. Use emojis where applicable. Return response in markdown format.`

const generalFinancePrompt = `Generate a response to the user's general finance-related question. Use tables, bullet points, and emojis, where applicable. Limit response to 600 characters. Return response in markdown format.`

const historyMatchPrompt = `You are given a new user question and a numbered list of questions the user asked earlier in this conversation. If one of the earlier questions asks essentially the same thing as the new question, respond with only its number. Otherwise respond with only the word NONE.`

const refinePrompt = `The user repeated a question that was already answered in this conversation. Refine the prior answer using the user's current account and transaction data so that every figure is up to date. Keep the response under 2400 characters, in markdown format, with bullet points, tables, and emojis where applicable.`

const rewritePrompt = `Rewrite the user's personal-finance question as one or more precise, self-contained questions about their accounts or transactions. Resolve vague references. Respond with only the rewritten question(s).`

const infoNeedPrompt = `Decide whether answering the user's question requires general factual information that is NOT in their bank data (for example typical costs of a purchase, travel prices, interest rate context). Respond with only YES or NO.`

const enrichmentPrompt = `Provide the general factual context needed to answer the user's question: typical costs, price ranges, and relevant considerations. Do not reference any personal data. Limit the response to 600 characters.`

const planPrompt = `Generate a retrieval plan for the user's question as a single JSON object following the plan schema below. Respond with only the JSON object.

`

const synthesisPrompt = `Steps:
1. Understand the user's query and intent.
2. When the user asks if they can afford something, provide a detailed cost breakdown for that item, compare it with the user's current financial situation, and give a recommendation.
3. Answer the user's query given the retrieved financial data and any provided context.
4. Ignore retrieved fields that are irrelevant to the query.
5. Keep the response under 2400 characters.
6. The response must be in markdown format. Use bullet points, tables, emojis, and other visual elements where applicable.`

// assistantService sequences the chat pipeline: classification gates cost,
// so the expensive personalized multi-call flow only runs when the
// classifier says the query needs user data.
type assistantService struct {
	db       *gorm.DB
	provider llm.CompletionProvider
	chats    ChatServicer
	schema   string
}

// NewAssistantService creates a new AssistantServicer. The retrievable
// schema summary is fixed at startup.
func NewAssistantService(db *gorm.DB, provider llm.CompletionProvider, chats ChatServicer) AssistantServicer {
	return &assistantService{
		db:       db,
		provider: provider,
		chats:    chats,
		schema:   schemaSummary(),
	}
}

// HandleQuery turns one user message into one assistant reply.
func (s *assistantService) HandleQuery(ctx context.Context, userID, chatID, query string) (string, error) {
	if strings.TrimSpace(query) == "" || chatID == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidRequest, "query and chatId are required")
	}

	if _, err := s.chats.GetChatByID(userID, chatID); err != nil {
		return "", err
	}

	// History is read before the inbound message is persisted so the new
	// query never matches itself.
	history, err := s.chats.ListMessages(userID, chatID)
	if err != nil {
		return "", err
	}

	if _, err := s.chats.AppendMessage(userID, chatID, models.ChatSenderUser, query); err != nil {
		return "", err
	}

	category, err := s.classifyWithRetry(ctx, query)
	if err != nil {
		return "", err
	}

	var response string
	switch category {
	case categoryOffTopic, categorySuspicious:
		response = deflectionText
	case categoryGreeting:
		response = s.completeOrEmpty(ctx, llm.CompletionRequest{
			System: greetingPrompt, User: query,
			MaxTokens: 30, Temperature: 0.7, TopP: 1.0,
			FrequencyPenalty: 0.3, PresencePenalty: 0.5,
		})
	case categoryGeneral:
		response = s.completeOrEmpty(ctx, llm.CompletionRequest{
			System: generalFinancePrompt, User: query,
			MaxTokens: 200, Temperature: 0.5, TopP: 0.7,
			FrequencyPenalty: 0.2, PresencePenalty: 0.6,
		})
	case categoryPersonalized:
		response, err = s.answerPersonalized(ctx, userID, query, history)
		if err != nil {
			return "", err
		}
	}

	if response == "" {
		response = fallbackText
	}

	if _, err := s.chats.AppendMessage(userID, chatID, models.ChatSenderBot, response); err != nil {
		return "", err
	}
	return response, nil
}

// classifyWithRetry maps the query to a category, retrying when the
// returned label is outside the expected vocabulary.
func (s *assistantService) classifyWithRetry(ctx context.Context, query string) (queryCategory, error) {
	for attempt := 1; attempt <= maxClassifyRetries; attempt++ {
		label, err := s.provider.Complete(ctx, llm.CompletionRequest{
			System: classifyPrompt, User: query,
			MaxTokens: 30, Temperature: 0.0, TopP: 1.0,
		})
		if err != nil {
			logger.Get().Warnw("classification attempt failed",
				"attempt", attempt, "error", err.Error())
			continue
		}

		if category, ok := parseCategory(label); ok {
			return category, nil
		}
		logger.Get().Warnw("classification label outside vocabulary",
			"attempt", attempt, "label", label)
	}
	return "", apperrors.ErrClassificationFailed
}

// parseCategory maps a classifier label onto the category vocabulary.
func parseCategory(label string) (queryCategory, bool) {
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, "GREETING"):
		return categoryGreeting, true
	case strings.Contains(upper, "CYBER") || strings.Contains(upper, "ATTACK"):
		return categorySuspicious, true
	case strings.Contains(upper, "OTHER") || strings.Contains(upper, "UNRELATED"):
		return categoryOffTopic, true
	case strings.Contains(upper, "ACCOUNT") || strings.Contains(upper, "TRANSACTION"):
		return categoryPersonalized, true
	case strings.Contains(upper, "GENERAL") || strings.Contains(upper, "FINANCE"):
		return categoryGeneral, true
	}
	return "", false
}

// answerPersonalized runs the multi-step flow: a prior-answer check first,
// then rewrite, info-need decision, optional enrichment, retrieval-plan
// generation and execution, and final synthesis. Completion calls within
// the flow are strictly sequential; only data loads run concurrently.
func (s *assistantService) answerPersonalized(ctx context.Context, userID, query string, history []models.ChatMessage) (string, error) {
	if prior := s.findPriorAnswer(ctx, query, history); prior != "" {
		return s.refinePriorAnswer(ctx, userID, query, prior)
	}

	rewritten, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: rewritePrompt, User: query,
		MaxTokens: 150, Temperature: 0.2, TopP: 1.0,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompletionFailed, err)
	}
	if rewritten == "" {
		rewritten = query
	}

	needsInfo, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: infoNeedPrompt, User: rewritten,
		MaxTokens: 5, Temperature: 0.0, TopP: 1.0,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompletionFailed, err)
	}

	var externalContext string
	if strings.Contains(strings.ToUpper(needsInfo), "YES") {
		externalContext, err = s.provider.Complete(ctx, llm.CompletionRequest{
			System: enrichmentPrompt, User: rewritten,
			MaxTokens: 200, Temperature: 0.4, TopP: 0.8,
		})
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrCompletionFailed, err)
		}
	}

	rows := s.retrieveRows(ctx, userID, rewritten)

	payload, err := json.Marshal(map[string]string{
		"query":     query,
		"rewritten": rewritten,
		"data":      rows,
		"context":   externalContext,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	answer, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: synthesisPrompt, User: string(payload),
		MaxTokens: 600, Temperature: 0.3, TopP: 0.4,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompletionFailed, err)
	}
	return answer, nil
}

// findPriorAnswer checks the thread history for a near-duplicate earlier
// question and returns the bot answer that followed it. An empty string
// means no match; any failure degrades to no match.
func (s *assistantService) findPriorAnswer(ctx context.Context, query string, history []models.ChatMessage) string {
	var priorQuestions []string
	var answerFor []int // index into history of the matching bot reply, -1 if none
	for i, msg := range history {
		if msg.Sender != models.ChatSenderUser {
			continue
		}
		answer := -1
		for j := i + 1; j < len(history); j++ {
			if history[j].Sender == models.ChatSenderBot {
				answer = j
				break
			}
		}
		priorQuestions = append(priorQuestions, msg.Text)
		answerFor = append(answerFor, answer)
	}
	if len(priorQuestions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("New question: " + query + "\n\nEarlier questions:\n")
	for i, q := range priorQuestions {
		sb.WriteString(strconv.Itoa(i+1) + ". " + q + "\n")
	}

	verdict, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: historyMatchPrompt, User: sb.String(),
		MaxTokens: 5, Temperature: 0.0, TopP: 1.0,
	})
	if err != nil {
		logger.Get().Warnw("history match check failed", "error", err.Error())
		return ""
	}

	n, err := strconv.Atoi(strings.TrimSpace(verdict))
	if err != nil || n < 1 || n > len(priorQuestions) {
		return ""
	}
	if answerFor[n-1] < 0 {
		return ""
	}
	return history[answerFor[n-1]].Text
}

// refinePriorAnswer re-grounds a cached answer in fresh account and
// transaction data. The two loads are independent reads and run
// concurrently.
func (s *assistantService) refinePriorAnswer(ctx context.Context, userID, query, prior string) (string, error) {
	var accounts []models.Account
	var transactions []models.Transaction

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.Where("user_id = ?", userID).Find(&accounts).Error
	})
	g.Go(func() error {
		return s.db.Where("user_id = ?", userID).Order("date desc").Limit(defaultPlanLimit).Find(&transactions).Error
	})
	if err := g.Wait(); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"query":        query,
		"priorAnswer":  prior,
		"accounts":     accounts,
		"transactions": transactions,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	answer, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: refinePrompt, User: string(payload),
		MaxTokens: 600, Temperature: 0.3, TopP: 0.4,
	})
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCompletionFailed, err)
	}
	return answer, nil
}

// retrieveRows generates and executes the retrieval plan. Failures are
// downgraded to an inline error string; the pipeline still completes.
func (s *assistantService) retrieveRows(ctx context.Context, userID, rewritten string) string {
	planText, err := s.provider.Complete(ctx, llm.CompletionRequest{
		System: planPrompt + s.schema, User: rewritten,
		MaxTokens: 200, Temperature: 0.0, TopP: 1.0,
	})
	if err != nil {
		logger.Get().Warnw("plan generation failed", "error", err.Error())
		return retrievalErrorText
	}

	plan, err := parseRetrievalPlan(planText)
	if err != nil {
		logger.Get().Warnw("plan rejected", "error", err.Error())
		return retrievalErrorText
	}

	rows, err := executeRetrievalPlan(s.db, userID, plan)
	if err != nil {
		logger.Get().Warnw("plan execution failed", "error", err.Error())
		return retrievalErrorText
	}
	return rows
}

// completeOrEmpty issues one completion and degrades provider failures to
// the fallback path.
func (s *assistantService) completeOrEmpty(ctx context.Context, req llm.CompletionRequest) string {
	text, err := s.provider.Complete(ctx, req)
	if err != nil {
		logger.Get().Warnw("completion failed", "error", err.Error())
		return ""
	}
	return text
}
