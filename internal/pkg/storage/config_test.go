package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetObjectKey(t *testing.T) {
	cfg := &Config{}

	key := cfg.GetObjectKey("PAY-7f3a1b2c", ".pdf", 2026, 3)
	assert.Equal(t, "receipts/2026/03/PAY-7f3a1b2c.pdf", key)
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", getContentType(".pdf"))
	assert.Equal(t, "image/jpeg", getContentType(".JPG"))
	assert.Equal(t, "application/octet-stream", getContentType(".bin"))
}

func TestObjectURLPrefersPublicBase(t *testing.T) {
	c := &Client{config: &Config{
		BucketName:    "foliotap-receipts",
		Region:        "eu-west-3",
		PublicBaseURL: "https://cdn.foliotap.com/",
	}}
	assert.Equal(t, "https://cdn.foliotap.com/receipts/2026/03/x.pdf", c.ObjectURL("receipts/2026/03/x.pdf"))

	c.config.PublicBaseURL = ""
	assert.Equal(t, "https://foliotap-receipts.s3.eu-west-3.amazonaws.com/receipts/2026/03/x.pdf", c.ObjectURL("receipts/2026/03/x.pdf"))
}
