package ioc

import (
	"log"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"

	"github.com/to404hanga/online_judge_evaluator/config"
	"github.com/to404hanga/online_judge_evaluator/event"
)

func InitKafka() sarama.SyncProducer {
	var cfg config.KafkaConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal kafka config failed: %v", err)
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		log.Panicf("create kafka sync producer failed: %v", err)
	}
	return producer
}

func InitProducer(producer sarama.SyncProducer) event.Producer {
	return event.NewSaramaSyncProducer(producer)
}
