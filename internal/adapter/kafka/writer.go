package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/site-cluster-map/internal/config"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes the features of each loaded dataset to a Kafka topic.
// It implements pipeline.FeatureSink.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// featureMessage is the JSON value of one sink message.
type featureMessage struct {
	domain.Feature
	Version    uint64 `json:"version"`
	StyleIndex int    `json:"styleIndex"`
}

// PublishFeatures writes every feature of ds in a single WriteMessages call.
func (w *Writer) PublishFeatures(ctx context.Context, ds *domain.Dataset) error {
	features := ds.Collection.Features()
	if len(features) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(features))
	for i, f := range features {
		msg, err := serializeToMessage(ds, f)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d features: %w", len(msgs), err)
	}
	w.logger.Debug("features published", "version", ds.Version, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one feature into a Kafka message keyed by its
// ID. The category header carries the style attribute of the dataset.
func serializeToMessage(ds *domain.Dataset, f domain.Feature) (kafkago.Message, error) {
	value := f.Value(ds.Known.Field())
	data, err := json.Marshal(featureMessage{
		Feature:    f,
		Version:    ds.Version,
		StyleIndex: ds.Known.Index(value),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature %d: %w", f.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.Itoa(f.ID)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(value)},
			{Key: "loaded_at", Value: []byte(ds.LoadedAt.UTC().Format(time.RFC3339))},
			{Key: "dataset_version", Value: []byte(strconv.FormatUint(ds.Version, 10))},
		},
	}, nil
}
