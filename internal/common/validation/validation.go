package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

const (
	// Ограничения для полей гива
	MaxGiveawayIDLength  = 64
	MaxTokenLength       = 32
	MaxKeywords          = 20
	MaxKeywordLength     = 64
	MaxDurationHours     = 24 * 365
	MaxRecipientsLimit   = 100000
	MaxAmountDecimalPart = 18
)

var (
	giveawayIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	tokenRegex      = regexp.MustCompile(`^[A-Za-z0-9$._-]+$`)
	// Twitter handle: буквы, цифры, подчеркивания, до 15 символов
	twitterHandleRegex = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)
)

// ValidateGiveawayID проверяет идентификатор, заданный создателем
func ValidateGiveawayID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if len(id) > MaxGiveawayIDLength {
		return fmt.Errorf("id cannot exceed %d characters", MaxGiveawayIDLength)
	}
	if !giveawayIDRegex.MatchString(id) {
		return fmt.Errorf("id may contain only letters, digits, '-' and '_'")
	}
	return nil
}

// ValidateToken проверяет символ токена выплаты
func ValidateToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}
	if len(token) > MaxTokenLength {
		return fmt.Errorf("token cannot exceed %d characters", MaxTokenLength)
	}
	if !tokenRegex.MatchString(token) {
		return fmt.Errorf("token contains invalid characters")
	}
	return nil
}

// ValidateAmount проверяет, что сумма положительна
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero")
	}
	if -amount.Exponent() > MaxAmountDecimalPart {
		return fmt.Errorf("amount cannot have more than %d decimal places", MaxAmountDecimalPart)
	}
	return nil
}

// ValidateKeywords проверяет уже разобранный список ключевых слов
func ValidateKeywords(keywords []string) error {
	if len(keywords) > MaxKeywords {
		return fmt.Errorf("cannot require more than %d keywords", MaxKeywords)
	}
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keywords cannot be empty")
		}
		if len(kw) > MaxKeywordLength {
			return fmt.Errorf("keyword '%s' exceeds %d characters", kw, MaxKeywordLength)
		}
	}
	return nil
}

// ValidateDurationHours допускает 0: такой гив сразу считается истекшим
func ValidateDurationHours(hours int) error {
	if hours < 0 {
		return fmt.Errorf("expiration cannot be negative")
	}
	if hours > MaxDurationHours {
		return fmt.Errorf("expiration cannot exceed %d hours", MaxDurationHours)
	}
	return nil
}

func ValidateMaxRecipients(max int) error {
	if max <= 0 {
		return fmt.Errorf("max recipients must be greater than zero")
	}
	if max > MaxRecipientsLimit {
		return fmt.Errorf("max recipients cannot exceed %d", MaxRecipientsLimit)
	}
	return nil
}

// ValidateFunding проверяет, что пул покрывает выплату всем получателям
func ValidateFunding(total, perRecipient decimal.Decimal, maxRecipients *int) error {
	if maxRecipients == nil {
		return nil
	}
	required := perRecipient.Mul(decimal.NewFromInt(int64(*maxRecipients)))
	if total.LessThan(required) {
		return fmt.Errorf("total amount %s does not cover %d recipients of %s", total, *maxRecipients, perRecipient)
	}
	return nil
}

// ValidateTwitterHandle принимает handle с ведущим @ или без него
func ValidateTwitterHandle(handle string) error {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if !twitterHandleRegex.MatchString(handle) {
		return fmt.Errorf("invalid twitter handle")
	}
	return nil
}

// ValidateWalletAddress проверяет EVM адрес получателя
func ValidateWalletAddress(address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid wallet address")
	}
	return nil
}

// NormalizeWalletAddress возвращает адрес в checksum-формате
func NormalizeWalletAddress(address string) (string, error) {
	if err := ValidateWalletAddress(address); err != nil {
		return "", err
	}
	return common.HexToAddress(address).Hex(), nil
}
