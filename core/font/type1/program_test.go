package type1

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trailer() []byte {
	var b bytes.Buffer
	for i := 0; i < 8; i++ {
		b.WriteString(strings.Repeat("0", 64))
		b.WriteByte('\n')
	}
	b.WriteString("cleartomark\n")
	return b.Bytes()
}

func syntheticProgram() *Program {
	body := make([]byte, 100)
	for i := range body {
		body[i] = byte(i * 7)
	}
	return &Program{
		Header:  []byte("%!PS-AdobeFont-1.0: Fixture-Regular 001.000\n/FontName /Fixture-Regular def\ncurrentfile eexec\n"),
		Body:    body,
		Trailer: trailer(),
	}
}

func TestPFBRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	p := syntheticProgram()
	var buf bytes.Buffer
	require.NoError(t, p.WritePFB(&buf))
	assert.Equal(t, []byte{0x80, 0x01}, buf.Bytes()[:2])
	q, err := ReadPFB(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	if diff := cmp.Diff(p, q); diff != "" {
		t.Errorf("PFB program mismatch (-want +got):\n%s", diff)
	}
	// truncated files and wrong segment types are rejected
	_, err = ReadPFB(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
	assert.True(t, font.IsFormatError(err))
	damaged := append([]byte(nil), buf.Bytes()...)
	damaged[1] = 0x02
	_, err = ReadPFB(bytes.NewReader(damaged))
	assert.True(t, font.IsFormatError(err))
}

func TestPFARoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	p := syntheticProgram()
	var buf bytes.Buffer
	require.NoError(t, p.WritePFA(&buf))
	q, err := ReadPFA(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	if diff := cmp.Diff(p, q); diff != "" {
		t.Errorf("PFA program mismatch (-want +got):\n%s", diff)
	}
}

func TestPFACarriageReturns(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	var buf bytes.Buffer
	require.NoError(t, syntheticProgram().WritePFA(&buf))
	crlf := bytes.ReplaceAll(buf.Bytes(), []byte("\n"), []byte("\r\n"))
	q, err := ReadPFA(bytes.NewReader(crlf))
	require.NoError(t, err)
	assert.Equal(t, syntheticProgram().Header, q.Header)
	assert.Equal(t, syntheticProgram().Body, q.Body)
	assert.Equal(t, syntheticProgram().Trailer, q.Trailer)
}

func TestMalformedPFA(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	header := "%!PS-AdobeFont-1.0: X\ncurrentfile eexec\n"
	for name, src := range map[string]string{
		"no eexec":       "%!PS-AdobeFont-1.0: X\n00ff\n" + string(trailer()),
		"too many zeros": header + "00ff\n" + strings.Repeat("0", 520) + "\ncleartomark\n",
		"too few zeros":  header + "ffff\n" + strings.Repeat("0", 100) + "\ncleartomark\n",
		"not hex":        header + "zz\n" + string(trailer()),
	} {
		_, err := ReadPFA(strings.NewReader(src))
		assert.True(t, font.IsFormatError(err), "%s: expected format error, have %v", name, err)
	}
}
