package history

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/sirupsen/logrus"

	"github.com/pegwatch/pkg/config"
	"github.com/pegwatch/pkg/models"
)

// Recorder persists finished risk scores so score drift over time is
// queryable after the evidence cache has long expired.
type Recorder struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   *logrus.Entry
}

// NewRecorder connects to InfluxDB using the non-blocking write API.
func NewRecorder(cfg *config.InfluxConfig, log *logrus.Logger) *Recorder {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPRequestTimeout(uint(cfg.Timeout.Seconds())))
	return &Recorder{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger:   log.WithField("component", "history"),
	}
}

// Record writes one finished assessment's scores. Writes are buffered and
// asynchronous; a write failure never surfaces into the pipeline.
func (r *Recorder) Record(symbol string, overall int, level models.RiskLevel, factors map[string]*models.RiskFactorScore) {
	point := influxdb2.NewPointWithMeasurement("risk_score").
		AddTag("symbol", symbol).
		AddTag("risk_level", string(level)).
		AddField("overall", overall).
		SetTime(time.Now())

	for name, factor := range factors {
		if factor != nil {
			point.AddField(name, factor.Score)
		}
	}
	r.writeAPI.WritePoint(point)
}

// Health verifies the InfluxDB connection.
func (r *Recorder) Health(ctx context.Context) error {
	_, err := r.client.Health(ctx)
	return err
}

// Close flushes buffered points and shuts the client down.
func (r *Recorder) Close() {
	r.writeAPI.Flush()
	r.client.Close()
}
