package kafka

import (
	"fmt"
	"strings"
	"sync"
	"time"

	kctl "github.com/jbvmio/kafka"
	"github.com/jbvmio/pumper/log"
	"github.com/jbvmio/pumper/metrics"
	"github.com/jbvmio/pumper/plugin"
	"gopkg.in/yaml.v2"
)

const stopTimeout = 15 * time.Second

// InputConfig contains configuration details when using the Input Plugin.
type InputConfig struct {
	Name        string   `yaml:"name" json:"name"`
	Brokers     []string `yaml:"brokers" json:"brokers"`
	Topics      []string `yaml:"topics" json:"topics"`
	Group       string   `yaml:"group" json:"group"`
	DeleteGroup bool     `yaml:"deleteGroup" json:"deleteGroup"`
	StartOldest bool     `yaml:"startOldest" json:"startOldest"`
	Threads     int      `yaml:"threads" json:"threads"`
}

// Configure attempts to configure the Config based on the details entered.
func (c *InputConfig) Configure(details map[string]interface{}) error {
	y, err := yaml.Marshal(details)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(y, c); err != nil {
		return err
	}
	switch {
	case len(c.Brokers) < 1:
		return fmt.Errorf("missing or invalid brokers defined for kafka input")
	case len(c.Topics) < 1:
		return fmt.Errorf("missing or invalid topics defined for kafka input")
	case c.Group == "":
		return fmt.Errorf("missing or invalid group defined for kafka input")
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
	if c.Name == "" {
		c.Name = `kafka:` + c.Group
	}
	return nil
}

// CreateInput creates an Input based on the Config.
func (c *InputConfig) CreateInput() (plugin.Input, error) {
	conf := kctl.GetConf(clientID())
	conf.Version = useKafkaVersion
	if c.StartOldest {
		conf.Consumer.Offsets.Initial = -2
	}
	client, err := kctl.NewCustomClient(conf, c.Brokers...)
	if err != nil {
		return nil, fmt.Errorf("kafka could not create client: %w", err)
	}
	in := &Input{
		client:        client,
		name:          c.Name,
		group:         c.Group,
		deleteGroup:   c.DeleteGroup,
		data:          make(chan []byte, defaultBuffer),
		errs:          make(chan error, defaultBuffer),
		stopChan:      make(chan struct{}),
		cgStoppedChan: make(chan int, c.Threads),
		l:             log.NewNoop(),
	}
	if c.DeleteGroup {
		if err := deleteCG(client, c.Group); err != nil {
			in.errs <- fmt.Errorf("kafka could not delete group: %w", err)
		}
	}
	topicsList := filterUnique(c.Topics)
	if ok := topicsExist(client, topicsList...); !ok {
		client.Close()
		return nil, fmt.Errorf("kafka could not validate input topics")
	}
	in.handler = newConsumedHandler(in.data, in.stopChan)
	in.consumers = make([]*kctl.ConsumerGroup, c.Threads)
	for i := 0; i < c.Threads; i++ {
		consumer, err := kctl.NewConsumerGroup(c.Brokers, c.Group, kctl.GetConf(clientID()), topicsList...)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("kafka could not create consumer: %w", err)
		}
		consumer.GETALL(in.process)
		in.consumers[i] = consumer
	}
	return in, nil
}

// Input works with data contained in Kafka Topics as Input.
type Input struct {
	client        *kctl.KClient
	consumers     []*kctl.ConsumerGroup
	handler       *consumedHandler
	name          string
	group         string
	deleteGroup   bool
	data          chan []byte
	errs          chan error
	stopChan      chan struct{}
	cgStoppedChan chan int
	wg            sync.WaitGroup
	l             log.Logger
}

// UseLogger assigns a logger for the Input.
func (in *Input) UseLogger(l log.Logger) {
	in.l = log.Named(l, in.name)
}

func (in *Input) process(msg *kctl.Message) (bool, error) {
	ok, err := in.handler.processMSG(msg)
	if ok {
		metrics.Get().ObserveChunk(in.name, len(msg.Value))
	}
	return ok, err
}

// Start starts the plugin.
func (in *Input) Start() error {
	for i := 0; i < len(in.consumers); i++ {
		in.wg.Add(1)
		go func(id int, consumer *kctl.ConsumerGroup) {
			defer in.wg.Done()
			if err := consumer.Consume(); err != nil {
				in.errs <- fmt.Errorf("consumer group thread %d: %w", id, err)
			}
			in.cgStoppedChan <- id
		}(i, in.consumers[i])
	}
	go func() {
		in.wg.Wait()
		close(in.data)
	}()
	return nil
}

// Stop stops the plugin.
func (in *Input) Stop() error {
	in.handler.stopped.Store(true)
	close(in.stopChan)
	var errMsgs []string
	for i := 0; i < len(in.consumers); i++ {
		if err := in.consumers[i].Close(); err != nil {
			errMsgs = append(errMsgs, err.Error())
		}
	}
	to := time.NewTimer(stopTimeout)
	defer to.Stop()
cgStop:
	for i := 0; i < len(in.consumers); i++ {
		select {
		case <-to.C:
			errMsgs = append(errMsgs, "timed out waiting for consumers to stop")
			break cgStop
		case id := <-in.cgStoppedChan:
			in.l.Infof("consumer group thread %d stopped", id)
		}
	}
	if in.deleteGroup {
		if err := deleteCG(in.client, in.group); err != nil {
			errMsgs = append(errMsgs, err.Error())
		}
	}
	if err := in.client.Close(); err != nil {
		errMsgs = append(errMsgs, err.Error())
	}
	if len(errMsgs) > 0 {
		return fmt.Errorf("kafka input: %s", strings.Join(errMsgs, `: `))
	}
	return nil
}

// Source returns the oncoming data channel for the Input Plugin.
func (in *Input) Source() <-chan []byte {
	return in.data
}

// Errors returns the error channel for the Input Plugin.
func (in *Input) Errors() <-chan error {
	return in.errs
}
