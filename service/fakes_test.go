package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

const plainPrefix = "plain:"

// fakeDoc describes one document known to fakePDF, keyed by its bytes.
type fakeDoc struct {
	password string // empty means not encrypted
	text     string
	images   [][]byte
}

type fakePDF struct {
	mu           sync.Mutex
	docs         map[string]fakeDoc
	decryptDelay time.Duration
	attempts     []string
}

func newFakePDF() *fakePDF {
	return &fakePDF{docs: map[string]fakeDoc{}}
}

// add registers a document and returns the bytes that identify it.
func (f *fakePDF) add(name string, doc fakeDoc) []byte {
	f.docs[name] = doc
	return []byte(name)
}

func (f *fakePDF) lookup(data []byte) (fakeDoc, bool) {
	doc, ok := f.docs[strings.TrimPrefix(string(data), plainPrefix)]
	return doc, ok
}

func (f *fakePDF) IsEncrypted(data []byte) (bool, error) {
	doc, ok := f.lookup(data)
	if !ok {
		return false, errors.New("not a pdf")
	}
	return doc.password != "", nil
}

func (f *fakePDF) Decrypt(data []byte, password string) ([]byte, error) {
	f.mu.Lock()
	f.attempts = append(f.attempts, password)
	f.mu.Unlock()

	if f.decryptDelay > 0 {
		time.Sleep(f.decryptDelay)
	}
	doc, ok := f.lookup(data)
	if !ok || doc.password != password {
		return nil, errors.New("wrong password")
	}
	return []byte(plainPrefix + string(data)), nil
}

func (f *fakePDF) ExtractText(data []byte) (string, error) {
	doc, ok := f.lookup(data)
	if !ok {
		return "", errors.New("not a pdf")
	}
	return doc.text, nil
}

func (f *fakePDF) ExtractImages(data []byte) ([][]byte, error) {
	doc, ok := f.lookup(data)
	if !ok {
		return nil, errors.New("not a pdf")
	}
	return doc.images, nil
}

func (f *fakePDF) tried() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.attempts...)
}

// fakeOCR returns the image bytes as their text.
type fakeOCR struct{}

func (fakeOCR) ExtractImageText(_ context.Context, img []byte) (string, error) {
	return string(img), nil
}
