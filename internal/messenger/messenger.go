package messenger

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/ellifont/NFT-platform/internal/config"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
)

type MessageService interface {
	SendMessage(item Item, body []byte) error
	PollMessages(item Item, chn chan<- *sqs.Message)
	DeleteMessage(item Item, msg *sqs.Message) error
	GetQueueSize(item Item) (*int, error)
}

type Messenger struct {
	sqsClient *sqs.SQS
}

type Item string

var (
	MarketEvents    Item = "market.events"
	MetadataRefresh Item = "metadata.refresh"
)

func (i Item) queue() string {
	return fmt.Sprintf("%s-%s", config.Get().Index, i)
}

func NewMessenger(cfg config.AwsConfig) MessageService {
	sess := session.Must(session.NewSession(&aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}))

	return &Messenger{sqsClient: sqs.New(sess)}
}

func (m Messenger) SendMessage(item Item, body []byte) error {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		return err
	}

	msgId, err := uuid.NewV4()
	if err != nil {
		return err
	}

	_, err = m.sqsClient.SendMessage(&sqs.SendMessageInput{
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			"MessageId": {DataType: aws.String("String"), StringValue: aws.String(msgId.String())},
		},
		QueueUrl: queueUrl,
	})
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("Queue: Failed to send message")
		return err
	}

	zap.L().With(zap.String("queue", item.queue())).Debug("Queue: Published message")

	return nil
}

func (m Messenger) PollMessages(item Item, chn chan<- *sqs.Message) {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("Queue: Failed to poll messages")
		return
	}

	for {
		output, err := m.sqsClient.ReceiveMessage(&sqs.ReceiveMessageInput{
			QueueUrl:            queueUrl,
			MaxNumberOfMessages: aws.Int64(10),
			WaitTimeSeconds:     aws.Int64(15),
		})
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("queue", item.queue())).Error("Queue: Failed to receive messages")
			continue
		}

		for _, message := range output.Messages {
			chn <- message
		}
	}
}

func (m Messenger) DeleteMessage(item Item, msg *sqs.Message) error {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		return err
	}

	_, err = m.sqsClient.DeleteMessage(&sqs.DeleteMessageInput{
		QueueUrl:      queueUrl,
		ReceiptHandle: msg.ReceiptHandle,
	})

	return err
}

func (m Messenger) GetQueueSize(item Item) (*int, error) {
	queueUrl, err := m.getQueueUrl(item)
	if err != nil {
		return nil, err
	}

	attrs, err := m.sqsClient.GetQueueAttributes(&sqs.GetQueueAttributesInput{
		QueueUrl:       queueUrl,
		AttributeNames: []*string{aws.String(sqs.QueueAttributeNameApproximateNumberOfMessages)},
	})
	if err != nil {
		return nil, err
	}

	sizeAttr, ok := attrs.Attributes[sqs.QueueAttributeNameApproximateNumberOfMessages]
	if !ok {
		return nil, fmt.Errorf("queue size attribute missing for %s", item.queue())
	}

	size := 0
	if _, err := fmt.Sscanf(*sizeAttr, "%d", &size); err != nil {
		return nil, err
	}

	return &size, nil
}

func (m Messenger) getQueueUrl(item Item) (*string, error) {
	result, err := m.sqsClient.GetQueueUrl(&sqs.GetQueueUrlInput{QueueName: aws.String(item.queue())})
	if err != nil {
		return nil, err
	}

	return result.QueueUrl, nil
}
