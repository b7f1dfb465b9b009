package checkout

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/graceseason/storefront/internal/storefront/core/domain/entity"
)

// ExpectedSignature is hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func ExpectedSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares the received signature with the expected one
// byte for byte in constant time.
func VerifySignature(secret string, c entity.PaymentCompletion) bool {
	expected := ExpectedSignature(secret, c.OrderID, c.PaymentID)
	return hmac.Equal([]byte(expected), []byte(c.Signature))
}
