package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFake struct {
	err      error
	to       string
	fileName string
	pdf      []byte
}

func (s *senderFake) SendRecibo(to, _, _, fileName string, pdf []byte) error {
	s.to, s.fileName, s.pdf = to, fileName, pdf
	return s.err
}

func TestEmailWorker_AnexaPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recibo_x.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3 test"), 0o644))

	sender := &senderFake{}
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "a@example.com", Subject: "Recibo", PDFPath: path})
	require.NoError(t, NewEmailWorker(sender).Process(context.Background(), raw))

	assert.Equal(t, "a@example.com", sender.to)
	assert.Equal(t, "recibo_x.pdf", sender.fileName)
	assert.Equal(t, "%PDF-1.3 test", string(sender.pdf))
}

func TestEmailWorker_SemDestinatarioIgnora(t *testing.T) {
	sender := &senderFake{}
	require.NoError(t, NewEmailWorker(sender).Process(context.Background(), json.RawMessage(`{"to_email":""}`)))
	assert.Empty(t, sender.to)
}

func TestEmailWorker_FalhaSMTPRetorna(t *testing.T) {
	sender := &senderFake{err: errors.New("dial tcp: refused")}
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "a@example.com"})
	assert.Error(t, NewEmailWorker(sender).Process(context.Background(), raw))
}

func TestEmailWorker_PDFAusenteRetorna(t *testing.T) {
	raw, _ := json.Marshal(EmailJobPayload{ToEmail: "a@example.com", PDFPath: "/nao/existe.pdf"})
	assert.Error(t, NewEmailWorker(&senderFake{}).Process(context.Background(), raw))
}
