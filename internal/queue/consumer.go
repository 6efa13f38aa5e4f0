package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartReceiptConsumer connects to RabbitMQ, declares the durable
// loan.receipts queue and renders every event into a printable text
// file under receiptsDir.  It runs a reconnect loop with exponential
// backoff and never returns in normal operation; processing errors are
// logged and the offending message is rejected without requeue so the
// desk keeps running.
func StartReceiptConsumer(url, receiptsDir string) {
	if url == "" {
		return
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("receipt-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeReceipts(conn, receiptsDir); err != nil {
			log.Printf("receipt-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeReceipts(conn *amqp.Connection, receiptsDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("receipt-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(receiptQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(receiptQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := writeReceipt(d.Body, receiptsDir); err != nil {
			log.Printf("receipt-consumer: handle message failed: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func writeReceipt(body []byte, receiptsDir string) error {
	var ev LoanReceiptEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(receiptsDir, 0o755); err != nil {
		return fmt.Errorf("mkdir receipts: %w", err)
	}
	name := fmt.Sprintf("%s-%s.txt", ev.Kind, ev.TransactionID)
	if ev.TransactionID == "" {
		name = fmt.Sprintf("%s-%d.txt", ev.Kind, time.Now().UnixNano())
	}
	fpath := filepath.Join(receiptsDir, name)
	if err := os.WriteFile(fpath, []byte(RenderReceipt(ev)), 0o644); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// RenderReceipt formats an event as a plain-text slip suitable for a
// 40-column desk printer.
func RenderReceipt(ev LoanReceiptEvent) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 40)
	sb.WriteString(rule + "\n")
	switch ev.Kind {
	case ReceiptKindReturn:
		sb.WriteString(center("RETURN RECEIPT", 40) + "\n")
	default:
		sb.WriteString(center("BORROW RECEIPT", 40) + "\n")
	}
	sb.WriteString(rule + "\n")
	sb.WriteString(fmt.Sprintf("Member:      %s\n", ev.MemberName))
	if ev.TransactionID != "" {
		sb.WriteString(fmt.Sprintf("Transaction: %s\n", ev.TransactionID))
	}
	if ev.CheckoutDate != "" {
		sb.WriteString(fmt.Sprintf("Checked out: %s\n", ev.CheckoutDate))
	}
	if ev.DueDate != "" {
		sb.WriteString(fmt.Sprintf("Due:         %s\n", ev.DueDate))
	}
	if ev.ReturnDate != "" {
		sb.WriteString(fmt.Sprintf("Returned:    %s\n", ev.ReturnDate))
	}
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	for _, it := range ev.Items {
		sb.WriteString(fmt.Sprintf("%-14s %s\n", it.Barcode, it.Title))
	}
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	sb.WriteString(fmt.Sprintf("%d item(s)  issued %s\n", len(ev.Items), ev.IssuedAt))
	sb.WriteString(rule + "\n")
	return sb.String()
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	return strings.Repeat(" ", pad) + s
}
