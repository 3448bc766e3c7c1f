package payment

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"ecommerce-core/internal/domain"
)

// Strategy is one payment method. Pay performs the initiation step and
// returns a receipt whose status may be success, pending, or failed.
type Strategy interface {
	Name() string
	RequiresConfirmation() bool
	Pay(order domain.Order) domain.PaymentReceipt
}

// Confirmer is implemented only by strategies whose pending receipts can be
// completed with extra evidence. Methods without a confirmation step (UPI)
// simply do not implement it.
type Confirmer interface {
	Complete(receipt domain.PaymentReceipt, evidence map[string]string) domain.PaymentReceipt
}

// Defaults is the closed set of strategies the platform registers at startup.
func Defaults() []Strategy {
	return []Strategy{
		CardStrategy{Processor: "VISA"},
		BankTransferStrategy{BankName: "Demo Bank"},
		UPIStrategy{Handle: "merchant@upi"},
		CashOnDeliveryStrategy{},
	}
}

// CardStrategy always leaves the payment pending and embeds a one-time code
// in the receipt metadata. Confirmation gets a single attempt: the code is
// consumed whether or not it matches.
type CardStrategy struct {
	Processor string
}

func (CardStrategy) Name() string               { return "card" }
func (CardStrategy) RequiresConfirmation() bool { return true }

func (s CardStrategy) Pay(order domain.Order) domain.PaymentReceipt {
	return domain.PaymentReceipt{
		OrderID:   order.ID,
		Method:    s.Name(),
		Amount:    order.Subtotal(),
		Reference: fmt.Sprintf("%s-%s", s.Processor, randomHex(8)),
		Status:    domain.PaymentPending,
		Metadata: map[string]string{
			"processor": s.Processor,
			"challenge": "otp",
			"otp":       oneTimeCode(),
		},
	}
}

func (CardStrategy) Complete(receipt domain.PaymentReceipt, evidence map[string]string) domain.PaymentReceipt {
	expected := receipt.Metadata["otp"]
	delete(receipt.Metadata, "otp")
	if expected == "" || evidence["otp"] != expected {
		receipt.Status = domain.PaymentFailed
		return receipt
	}
	receipt.Status = domain.PaymentSuccess
	receipt.Metadata["verifiedVia"] = "otp"
	return receipt
}

// BankTransferStrategy stays pending until any transaction id is supplied;
// confirmation then always succeeds and records the acknowledgement.
type BankTransferStrategy struct {
	BankName string
}

func (BankTransferStrategy) Name() string               { return "bank_transfer" }
func (BankTransferStrategy) RequiresConfirmation() bool { return true }

func (s BankTransferStrategy) Pay(order domain.Order) domain.PaymentReceipt {
	return domain.PaymentReceipt{
		OrderID:   order.ID,
		Method:    s.Name(),
		Amount:    order.Subtotal(),
		Reference: "NEFT-" + randomHex(6),
		Status:    domain.PaymentPending,
		Metadata:  map[string]string{"bank": s.BankName},
	}
}

func (BankTransferStrategy) Complete(receipt domain.PaymentReceipt, evidence map[string]string) domain.PaymentReceipt {
	ack := evidence["transactionId"]
	if ack == "" {
		ack = "manual"
	}
	receipt.Status = domain.PaymentSuccess
	receipt.Metadata["bankAck"] = ack
	return receipt
}

// UPIStrategy is synchronous: payment succeeds at initiation and there is no
// confirmation step.
type UPIStrategy struct {
	Handle string
}

func (UPIStrategy) Name() string               { return "upi" }
func (UPIStrategy) RequiresConfirmation() bool { return false }

func (s UPIStrategy) Pay(order domain.Order) domain.PaymentReceipt {
	return domain.PaymentReceipt{
		OrderID:   order.ID,
		Method:    s.Name(),
		Amount:    order.Subtotal(),
		Reference: "UPI-" + randomHex(10),
		Status:    domain.PaymentSuccess,
		Metadata:  map[string]string{"handle": s.Handle},
	}
}

// CashOnDeliveryStrategy stays pending until the caller confirms delivery.
type CashOnDeliveryStrategy struct{}

func (CashOnDeliveryStrategy) Name() string               { return "cod" }
func (CashOnDeliveryStrategy) RequiresConfirmation() bool { return true }

func (s CashOnDeliveryStrategy) Pay(order domain.Order) domain.PaymentReceipt {
	return domain.PaymentReceipt{
		OrderID:   order.ID,
		Method:    s.Name(),
		Amount:    order.Subtotal(),
		Reference: "COD-" + randomHex(5),
		Status:    domain.PaymentPending,
		Metadata:  map[string]string{"instructions": "Collect cash on delivery"},
	}
}

func (CashOnDeliveryStrategy) Complete(receipt domain.PaymentReceipt, evidence map[string]string) domain.PaymentReceipt {
	if evidence["delivered"] == "true" {
		receipt.Status = domain.PaymentSuccess
	} else {
		receipt.Status = domain.PaymentFailed
	}
	return receipt
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)[:n]
}

func oneTimeCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}
