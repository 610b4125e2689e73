package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for ingestion observability spans and metrics.
var (
	AttrEmbedProvider   = attribute.Key("embedding.provider")
	AttrEmbedTextCount  = attribute.Key("embedding.text_count")
	AttrEmbedDimensions = attribute.Key("embedding.dimensions")

	AttrSinkBackend     = attribute.Key("sink.backend")
	AttrSinkRecordCount = attribute.Key("sink.record_count")
	AttrDocumentID      = attribute.Key("document.id")
	AttrFieldPath       = attribute.Key("document.field_path")
)
