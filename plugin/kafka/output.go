package kafka

import (
	"fmt"
	"sync"

	kctl "github.com/jbvmio/kafka"
	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/plugin"
	"gopkg.in/yaml.v2"
)

// OutputConfig contains configuration details when using the KafkaOutput Plugin.
type OutputConfig struct {
	Brokers []string `yaml:"brokers" json:"brokers"`
	Topics  []string `yaml:"topics" json:"topics"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *OutputConfig) Configure(details map[string]interface{}) error {
	y, err := yaml.Marshal(details)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(y, c); err != nil {
		return err
	}
	switch {
	case len(c.Brokers) < 1:
		return fmt.Errorf("missing or invalid brokers defined for kafka output")
	case len(c.Topics) < 1:
		return fmt.Errorf("missing or invalid topics defined for kafka output")
	}
	return nil
}

// CreateOutput creates an Output based on the Config.
func (c *OutputConfig) CreateOutput() (plugin.Output, error) {
	conf := kctl.GetConf(clientID())
	conf.Version = useKafkaVersion
	client, err := kctl.NewCustomClient(conf, c.Brokers...)
	if err != nil {
		return nil, fmt.Errorf("kafka could not create client: %w", err)
	}
	topicsList := filterUnique(c.Topics)
	if ok := topicsExist(client, topicsList...); !ok {
		client.Close()
		return nil, fmt.Errorf("kafka could not validate output topics")
	}
	out := &Output{
		client:   client,
		data:     make(chan []byte, defaultBuffer),
		errs:     make(chan error, defaultBuffer),
		stopChan: make(chan struct{}),
		l:        log.NewNoop(),
	}
	for _, topic := range topicsList {
		P, err := client.NewProducer()
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("kafka could not create producer: %w", err)
		}
		out.producers = append(out.producers, newKafkaProducer(P, topic, out.stopChan, out.errs, out.l))
	}
	return out, nil
}

// Output writes data out to Kafka topics, one message per record.
type Output struct {
	client    *kctl.KClient
	producers []*kafkaProducer
	data      chan []byte
	errs      chan error
	stopChan  chan struct{}
	wg        sync.WaitGroup
	l         log.Logger
}

// UseLogger assigns a logger for the Output and its producers.
func (out *Output) UseLogger(l log.Logger) {
	out.l = l
	for _, p := range out.producers {
		p.l = l
	}
}

// Start starts the plugin.
func (out *Output) Start() error {
	for _, p := range out.producers {
		out.wg.Add(1)
		p.watch(&out.wg)
	}
	out.wg.Add(1)
	go func() {
		defer out.wg.Done()
	produceLoop:
		for {
			select {
			case <-out.stopChan:
				break produceLoop
			case b := <-out.data:
				for _, p := range out.producers {
					if !p.send(b) {
						break produceLoop
					}
				}
			}
		}
	}()
	return nil
}

// Stop stops the plugin.
func (out *Output) Stop() error {
	close(out.stopChan)
	out.wg.Wait()
	out.l.Infof("all kafka producers stopped")
	return out.client.Close()
}

// Destination returns the channel used for accept data to the intended Plugin destination.
func (out *Output) Destination() chan<- []byte {
	return out.data
}

// Errors returns the error channel for the Output Plugin.
func (out *Output) Errors() <-chan error {
	return out.errs
}
