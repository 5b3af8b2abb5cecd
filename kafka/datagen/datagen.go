// Package datagen generates sample records with deliberate quality problems
// and produces them to a Kafka topic. It exists so the kafka check command
// has something to chew on without a real upstream producer.
package datagen

import (
	"encoding/json"
	"io/ioutil"
	"log"
	"math/rand"
	"time"

	"github.com/Shopify/sarama"
	"github.com/linkedin/goavro"
	"github.com/pkg/errors"
)

// Main holds the execution state for the generator.
type Main struct {
	Hosts      []string      `help:"Comma separated list of Kafka hosts and ports."`
	Topic      string        `help:"Kafka topic to produce to."`
	Number     int           `help:"Number of records to produce. 0 means run until interrupted."`
	Rate       time.Duration `help:"Time to wait between records."`
	DirtyEvery int           `help:"Give every nth record a quality problem."`
	Schema     string        `help:"Path to an avro schema file. Empty means produce JSON."`
	Seed       int64         `help:"Random seed."`
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Hosts:      []string{"localhost:9092"},
		Topic:      "test",
		Number:     1000,
		Rate:       time.Millisecond * 10,
		DirtyEvery: 5,
	}
}

// Run runs the generator.
func (m *Main) Run() error {
	conf := sarama.NewConfig()
	conf.Version = sarama.V0_10_0_0
	conf.Producer.Return.Successes = true
	producer, err := sarama.NewSyncProducer(m.Hosts, conf)
	if err != nil {
		return errors.Wrap(err, "getting new producer")
	}
	defer producer.Close()

	var codec *goavro.Codec
	if m.Schema != "" {
		schema, err := ioutil.ReadFile(m.Schema)
		if err != nil {
			return errors.Wrap(err, "reading schema file")
		}
		codec, err = goavro.NewCodec(string(schema))
		if err != nil {
			return errors.Wrap(err, "getting avro codec")
		}
	}

	gen := NewGenerator(m.Seed, m.DirtyEvery)
	ticker := time.NewTicker(m.Rate)
	defer ticker.Stop()
	for i := 0; m.Number == 0 || i < m.Number; i++ {
		rec := gen.Record()
		var data []byte
		if codec != nil {
			data, err = codec.BinaryFromNative(nil, rec)
			if err != nil {
				return errors.Wrap(err, "encoding avro")
			}
		} else {
			data, err = json.Marshal(rec)
			if err != nil {
				return errors.Wrap(err, "encoding json")
			}
		}
		msg := &sarama.ProducerMessage{Topic: m.Topic, Value: sarama.ByteEncoder(data)}
		if _, _, err := producer.SendMessage(msg); err != nil {
			log.Printf("Error sending message: '%v', backing off", err)
			time.Sleep(time.Second * 10)
		}
		<-ticker.C
	}
	return nil
}

var stations = []string{"alpha", "bravo", "charlie", "delta", "echo"}

// Generator produces one record at a time, most of them clean.
type Generator struct {
	rnd        *rand.Rand
	dirtyEvery int
	n          int
}

// NewGenerator returns a Generator. Every dirtyEvery-th record gets one of a
// rotating set of quality problems; pass 0 to generate only clean records.
func NewGenerator(seed int64, dirtyEvery int) *Generator {
	return &Generator{
		rnd:        rand.New(rand.NewSource(seed)),
		dirtyEvery: dirtyEvery,
	}
}

// Record returns the next record.
func (g *Generator) Record() map[string]interface{} {
	g.n++
	rec := map[string]interface{}{
		"id":      g.n,
		"station": stations[g.rnd.Intn(len(stations))],
		"qty":     float64(g.rnd.Intn(100) + 1),
		"price":   g.rnd.Float64() * 500,
		"lat":     g.rnd.Float64()*170 - 85,
		"lon":     g.rnd.Float64()*340 - 170,
		"ts":      time.Now().UTC().Format(time.RFC3339),
	}
	if g.dirtyEvery > 0 && g.n%g.dirtyEvery == 0 {
		switch (g.n / g.dirtyEvery) % 4 {
		case 0:
			rec["qty"] = float64(-1 - g.rnd.Intn(10))
		case 1:
			delete(rec, "station")
		case 2:
			rec["lat"] = 200.0
		case 3:
			rec["ts"] = "not-a-timestamp"
		}
	}
	return rec
}
