package kafka

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sync"
	"sync/atomic"

	kctl "github.com/jbvmio/kafka"
	"github.com/jbvmio/pumper/log"
)

const (
	defaultBuffer = 1000
)

var useKafkaVersion = kctl.VER210KafkaVersion

type kafkaProducer struct {
	producer *kctl.Producer
	topic    string
	stopChan chan struct{}
	errs     chan error
	l        log.Logger
}

func newKafkaProducer(producer *kctl.Producer, topic string, stopChan chan struct{}, errs chan error, l log.Logger) *kafkaProducer {
	return &kafkaProducer{
		producer: producer,
		topic:    topic,
		stopChan: stopChan,
		errs:     errs,
		l:        l,
	}
}

func (p *kafkaProducer) watch(wg *sync.WaitGroup) {
	go func() {
		defer wg.Done()
	watchLoop:
		for {
			select {
			case <-p.stopChan:
				break watchLoop
			case e := <-p.producer.Errors():
				p.errs <- fmt.Errorf("producer for topic %s error: %w", p.topic, e.Err)
			case <-p.producer.Successes():
			}
		}
		p.l.Infof("producer for topic %s stopped", p.topic)
	}()
}

// send hands b to the producer, giving up if the Output is stopping.
func (p *kafkaProducer) send(b []byte) bool {
	select {
	case p.producer.Input() <- &kctl.Message{Topic: p.topic, Value: b}:
		return true
	case <-p.stopChan:
		return false
	}
}

// consumedHandler forwards consumed messages until the Input is stopped.
type consumedHandler struct {
	data     chan []byte
	stopChan chan struct{}
	stopped  atomic.Bool
}

func newConsumedHandler(data chan []byte, stopChan chan struct{}) *consumedHandler {
	return &consumedHandler{
		data:     data,
		stopChan: stopChan,
	}
}

func (h *consumedHandler) processMSG(msg *kctl.Message) (bool, error) {
	if h.stopped.Load() {
		return false, nil
	}
	select {
	case h.data <- msg.Value:
		return true, nil
	case <-h.stopChan:
		return false, nil
	}
}

func clientID() string {
	hn, err := os.Hostname()
	if err != nil {
		hn = "undiscovered-host"
	}
	return hn + `-` + makeHex(6)
}

// deleteCG deletes a consumer group.
func deleteCG(client *kctl.KClient, group string) error {
	groups, errs := client.ListGroups()
	if len(errs) > 0 {
		return fmt.Errorf("error fetching existing group metadata: %v", errs[0])
	}
	for _, g := range groups {
		if g != group {
			continue
		}
		if err := client.RemoveGroup(group); err != nil {
			return fmt.Errorf("error deleting existing group: %w", err)
		}
		return nil
	}
	return nil
}

// topicsExist reports whether every topic matches an existing topic.
func topicsExist(client *kctl.KClient, topics ...string) bool {
	if len(topics) < 1 {
		return false
	}
	tMeta, err := client.GetTopicMeta()
	if err != nil {
		return false
	}
	regex := makeRegex(topics...)
	matched := make(map[string]bool)
	for _, t := range tMeta {
		if regex.MatchString(t.Topic) {
			matched[t.Topic] = true
		}
	}
	return len(matched) >= len(topics)
}

func makeRegex(terms ...string) *regexp.Regexp {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = regexp.QuoteMeta(t)
	}
	if len(quoted) == 0 {
		return regexp.MustCompile(`^$`)
	}
	expr := `^(` + quoted[0]
	for _, t := range quoted[1:] {
		expr += `|` + t
	}
	return regexp.MustCompile(expr + `)$`)
}

// filterUnique returns vals without duplicates, keeping the first occurrence.
func filterUnique(vals []string) []string {
	var tmp []string
	dupe := make(map[string]bool)
	for _, v := range vals {
		if !dupe[v] {
			dupe[v] = true
			tmp = append(tmp, v)
		}
	}
	return tmp
}

func makeHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
