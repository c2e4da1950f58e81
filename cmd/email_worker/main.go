package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/incluiaqui/incluiaqui-server/config"
	"github.com/incluiaqui/incluiaqui-server/pkg/mailer"
)

// Consumes email jobs from RabbitMQ and delivers them through Mailgun.
func main() {
	cfg := config.Load()
	if !cfg.MailSendEnabled {
		log.Println("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare: %v", err)
	}
	// fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	deliveries, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	log.Printf("email worker consuming from %q", cfg.RabbitMQEmailQueue)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-quit:
			log.Println("email worker shutting down")
			return
		case d, ok := <-deliveries:
			if !ok {
				log.Println("delivery channel closed")
				return
			}
			handleDelivery(mg, d)
		}
	}
}

func handleDelivery(mg *mailer.Mailgun, d amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("bad email job, dropping: %v", err)
		_ = d.Nack(false, false)
		return
	}

	subject, text := renderJob(job)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := mg.Send(ctx, job.To, subject, text, job.HTML); err != nil {
		log.Printf("send to %s failed, requeueing: %v", job.To, err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}

func renderJob(job mailer.EmailJob) (subject, text string) {
	subject = job.Subject
	text = job.Text
	if job.Type == mailer.TypeWelcome {
		if subject == "" {
			subject = "Welcome to IncluiAqui"
		}
		if text == "" {
			name := fmt.Sprintf("%v", job.Data["Username"])
			text = fmt.Sprintf("Hi %s,\n\nWelcome to IncluiAqui! Start rating places for accessibility today.\n", name)
		}
	}
	if subject == "" {
		subject = "Notification"
	}
	return subject, text
}
