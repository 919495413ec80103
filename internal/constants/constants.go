package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultTopic   = "lambda-topic"
	DefaultGroupID = "lambda-consumer-group"
)

const (
	DefaultServiceName = "Kafka Producer/Consumer"
	ServiceNameRelay   = "relay-service"
	ServiceNameLambda  = "relay-lambda"
)

const (
	ShutdownTimeout     = 5 * time.Second
	HealthCheckTimeout  = 5 * time.Second
	DisplayFieldWidth   = 45
	StatusUp            = "UP"
	StatusSuccess       = "success"
	ResponseMessageSent = "Mensagem enviada para o Kafka"
	ResponseSimpleSent  = "Mensagem simples enviada para o Kafka"
)

const (
	DefaultSimpleContent = "Mensagem de teste"
	DefaultSimpleSender  = "API REST"
)

const (
	InvocationSuccessPrefix = "Mensagem processada com sucesso: "
	InvocationStatusSuccess = "success"
	InvocationStatusFailed  = "failed"
)
