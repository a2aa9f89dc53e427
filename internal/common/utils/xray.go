package utils

import (
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// AddMetadata はセグメントにメタデータを追加します
// トレースされていないコンテキストから作られた nil のセグメントは無視します
func AddMetadata(seg *xray.Segment, key string, value interface{}) {
	if seg == nil {
		return
	}
	if err := seg.AddMetadata(key, value); err != nil {
		log.Printf("Failed to add %s metadata: %v", key, err)
	}
}
