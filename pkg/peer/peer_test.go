package peer

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"

	"github.com/rtcx/data-channels/pkg/signal"
)

// testOfferSDP is a data-channel-only offer in the shape the binary embeds.
const testOfferSDP = "v=0\r\no=- 5340727823215260889 1636897623 IN IP4 0.0.0.0\r\ns=-\r\nt=0 0\r\na=fingerprint:sha-256 B7:D9:04:8D:52:B2:F5:46:BA:9F:EB:AC:E0:62:65:D3:71:E1:2B:13:1B:ED:87:8D:E5:1D:60:8A:4A:27:4F:C5\r\na=group:BUNDLE 0\r\nm=application 9 UDP/DTLS/SCTP webrtc-datachannel\r\nc=IN IP4 0.0.0.0\r\na=setup:actpass\r\na=mid:0\r\na=sendrecv\r\na=sctp-port:5000\r\na=ice-ufrag:PCrxmuHcaZphIFEj\r\na=ice-pwd:JNlJxHWYGduaIDcAZpkrghAcDDuzrxqD\r\n"

const testCandidate = "candidate:422338508 1 udp 2130706431 1.2.3.4 61411 typ host"

// syncBuffer collects driver output; callbacks write from library
// goroutines while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRandomMessage(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		msg := randomMessage(15)
		if len(msg) != 15 {
			t.Fatalf("len(%q) = %d, want 15", msg, len(msg))
		}
		for _, r := range msg {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("message %q contains non-alphabetic %q", msg, r)
			}
		}
		seen[msg] = true
	}
	if len(seen) < 2 {
		t.Error("generator returned the same message on every draw")
	}
}

// TestAnswerEmbeddedOffer walks the negotiation phase against the embedded
// offer: remote description, answer, local description, candidate add, and
// the base64 line the operator pastes into the remote peer.
func TestAnswerEmbeddedOffer(t *testing.T) {
	var out syncBuffer
	driver, err := NewDriver(Config{Out: &out})
	require.NoError(t, err)
	defer driver.Close()

	require.Nil(t, driver.LocalDescription())

	err = driver.Answer(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  testOfferSDP,
	})
	require.NoError(t, err)

	// Candidates are only valid once the remote description is in place.
	sdpMid := ""
	var sdpMLineIndex uint16
	require.NoError(t, driver.AddRemoteCandidate(webrtc.ICECandidateInit{
		Candidate:     testCandidate,
		SDPMid:        &sdpMid,
		SDPMLineIndex: &sdpMLineIndex,
	}))

	localDesc := driver.LocalDescription()
	require.NotNil(t, localDesc)
	require.Equal(t, webrtc.SDPTypeAnswer, localDesc.Type)
	require.Contains(t, localDesc.SDP, "m=application")
	require.Contains(t, localDesc.SDP, "a=sctp-port:5000")

	encoded, err := signal.Encode(localDesc)
	require.NoError(t, err)

	var decoded webrtc.SessionDescription
	require.NoError(t, signal.Decode(encoded, &decoded))
	require.Equal(t, webrtc.SDPTypeAnswer, decoded.Type)
	require.Equal(t, localDesc.SDP, decoded.SDP)
}

func TestCandidateBeforeRemoteDescription(t *testing.T) {
	driver, err := NewDriver(Config{Out: &syncBuffer{}})
	require.NoError(t, err)
	defer driver.Close()

	sdpMid := ""
	var sdpMLineIndex uint16
	err = driver.AddRemoteCandidate(webrtc.ICECandidateInit{
		Candidate:     testCandidate,
		SDPMid:        &sdpMid,
		SDPMLineIndex: &sdpMLineIndex,
	})
	require.Error(t, err, "candidates must be rejected before the remote description is set")
}

func TestStopSignalsDone(t *testing.T) {
	driver, err := NewDriver(Config{Out: &syncBuffer{}})
	require.NoError(t, err)
	defer driver.Close()

	select {
	case <-driver.Done():
		t.Fatal("done closed before Stop")
	default:
	}

	driver.Stop()
	driver.Stop() // idempotent

	select {
	case <-driver.Done():
	case <-time.After(time.Second):
		t.Fatal("done not closed after Stop")
	}
}

// TestLoopbackExchange connects the driver to an in-process offerer over
// loopback and observes both directions: the driver's periodic random
// messages (shortened interval) and its receipt print for an inbound text.
func TestLoopbackExchange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping loopback integration test in short mode")
	}

	var out syncBuffer
	answerer, err := NewDriver(Config{
		SendInterval:              50 * time.Millisecond,
		Out:                       &out,
		IncludeLoopbackCandidates: true,
	})
	require.NoError(t, err)
	defer answerer.Close()

	settingEngine := webrtc.SettingEngine{}
	settingEngine.SetIncludeLoopbackCandidate(true)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(settingEngine))

	offerer, err := api.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer offerer.Close()

	channel, err := offerer.CreateDataChannel("data", nil)
	require.NoError(t, err)

	opened := make(chan struct{})
	channel.OnOpen(func() { close(opened) })

	received := make(chan string, 16)
	channel.OnMessage(func(msg webrtc.DataChannelMessage) {
		received <- string(msg.Data)
	})

	// Non-trickle exchange: wait for gathering so each description
	// carries its candidates.
	offer, err := offerer.CreateOffer(nil)
	require.NoError(t, err)
	offererGathered := webrtc.GatheringCompletePromise(offerer)
	require.NoError(t, offerer.SetLocalDescription(offer))
	<-offererGathered

	answererGathered := webrtc.GatheringCompletePromise(answerer.pc)
	require.NoError(t, answerer.Answer(*offerer.LocalDescription()))
	<-answererGathered

	require.NoError(t, offerer.SetRemoteDescription(*answerer.pc.LocalDescription()))

	select {
	case <-opened:
	case <-time.After(10 * time.Second):
		t.Fatal("data channel never opened")
	}

	require.NoError(t, channel.SendText("hello"))

	// The driver prints the inbound text and keeps sending random
	// messages on its shortened cadence.
	deadline := time.After(10 * time.Second)
	for !strings.Contains(out.String(), "Message from DataChannel 'data': 'hello'") {
		select {
		case <-deadline:
			t.Fatalf("receipt line never printed; output:\n%s", out.String())
		case <-time.After(20 * time.Millisecond):
		}
	}

	select {
	case msg := <-received:
		require.Len(t, msg, 15)
		for _, r := range msg {
			require.Contains(t, alphabet, string(r))
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("no random message received; output:\n%s", out.String())
	}

	require.Contains(t, out.String(), "New DataChannel data")
	require.Contains(t, out.String(), "open. Random messages will now be sent")
}
