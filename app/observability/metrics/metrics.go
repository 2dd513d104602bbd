package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	SignupRequestsTotal    metric.Int64Counter
	LoginRequestsTotal     metric.Int64Counter
	OffersPublishedTotal   metric.Int64Counter
	OffersDeletedTotal     metric.Int64Counter
	OfferSearchesTotal     metric.Int64Counter
	ImageUploadsTotal      metric.Int64Counter
	ImageUploadErrorsTotal metric.Int64Counter
	DbQueryDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments only once,
// using the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("secondhand-market")
		var err error
		m := &AppMetrics{}

		m.SignupRequestsTotal, err = meter.Int64Counter(
			"signup_requests_total",
			metric.WithDescription("Total number of signup requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create signup_requests_total: %v", err)
		}

		m.LoginRequestsTotal, err = meter.Int64Counter(
			"login_requests_total",
			metric.WithDescription("Total number of login requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create login_requests_total: %v", err)
		}

		m.OffersPublishedTotal, err = meter.Int64Counter(
			"offers_published_total",
			metric.WithDescription("Total number of offers published"),
			metric.WithUnit("{offer}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create offers_published_total: %v", err)
		}

		m.OffersDeletedTotal, err = meter.Int64Counter(
			"offers_deleted_total",
			metric.WithDescription("Total number of offers deleted"),
			metric.WithUnit("{offer}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create offers_deleted_total: %v", err)
		}

		m.OfferSearchesTotal, err = meter.Int64Counter(
			"offer_searches_total",
			metric.WithDescription("Total number of offer search requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create offer_searches_total: %v", err)
		}

		m.ImageUploadsTotal, err = meter.Int64Counter(
			"image_uploads_total",
			metric.WithDescription("Total number of images uploaded to the image store"),
			metric.WithUnit("{image}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create image_uploads_total: %v", err)
		}

		m.ImageUploadErrorsTotal, err = meter.Int64Counter(
			"image_upload_errors_total",
			metric.WithDescription("Total number of failed image store operations"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create image_upload_errors_total: %v", err)
		}

		m.DbQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the initialized metric instruments. InitAppMetrics must have
// been called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		InitAppMetrics()
	}
	return appMetrics
}
