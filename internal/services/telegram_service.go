package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramService posts staff notifications through the Telegram Bot API.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	client      *http.Client
	log         *zap.Logger
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string, log *zap.Logger) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
		baseURL:     telegramAPIBase,
		client:      &http.Client{Timeout: defaultHTTPTimeout},
		log:         log.Named("telegram"),
	}
}

// Configured reports whether both the bot token and the admin chat are set.
func (s *TelegramService) Configured() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML formatted message to the given chat.
func (s *TelegramService) SendMessage(ctx context.Context, chatID, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	return s.SendMessage(ctx, s.adminChatID, text)
}

// OrderNotification contains order data for the staff notification.
type OrderNotification struct {
	OrderNumber string
	UserPhone   string
	Address     string
	Items       []OrderItemNotification
	Total       decimal.Decimal
}

// OrderItemNotification contains order item data.
type OrderItemNotification struct {
	Title    string
	Quantity int
	Price    decimal.Decimal
}

// FormatPrice renders amount with two decimals and thousand separators.
func FormatPrice(amount decimal.Decimal) string {
	str := amount.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(str, ".")

	negative := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var result strings.Builder
	if negative {
		result.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(digit)
	}

	return result.String() + "." + fracPart
}

// formatOrderMessage renders the staff notice in Telegram HTML. Customer text is escaped.
func formatOrderMessage(order OrderNotification) string {
	var itemsList strings.Builder
	for i, item := range order.Items {
		fmt.Fprintf(&itemsList, "%d. <b>%s</b>\n   %d = %s\n",
			i+1,
			html.EscapeString(item.Title),
			item.Quantity,
			FormatPrice(item.Price),
		)
	}

	message := fmt.Sprintf(`<b>New order</b>
<b>Number:</b> %s
<b>Customer:</b> %s
<b>Ship to:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s`,
		html.EscapeString(order.OrderNumber),
		html.EscapeString(order.UserPhone),
		html.EscapeString(order.Address),
		itemsList.String(),
		FormatPrice(order.Total),
	)

	return strings.TrimSpace(message)
}

// NotifyNewOrder sends a summary of a freshly placed order to the admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order OrderNotification) error {
	return s.SendToAdmin(ctx, formatOrderMessage(order))
}
