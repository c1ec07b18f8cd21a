package hostport_test

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jangala-dev/tinygo-uartline/uartline"
	"github.com/jangala-dev/tinygo-uartline/uartline/hostport"
	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

var _ uartline.Peripheral = (*hostport.Port)(nil)

func TestPort_ReceiveLine(t *testing.T) {
	dev, peer := net.Pipe()
	defer peer.Close()

	ctrl := softirq.New()
	port := hostport.New(dev, ctrl, hostport.Config{Device: "pipe"})
	defer port.Close()

	m, err := uartline.New(port, ctrl, uartline.Config{Interrupts: true, Timeout: 2 * time.Second})
	require.NoError(t, err)
	defer m.Close()

	go func() {
		peer.Write([]byte("hello\rworld\r"))
	}()

	line := make([]byte, 32)
	n, err := m.ReceiveLine(line)
	require.NoError(t, err)
	require.Equal(t, "hello", string(line[:n]))
	n, err = m.ReceiveLine(line)
	require.NoError(t, err)
	require.Equal(t, "world", string(line[:n]))
	require.Zero(t, port.Overruns())
}

func TestPort_Transmit(t *testing.T) {
	dev, peer := net.Pipe()
	defer peer.Close()

	ctrl := softirq.New()
	port := hostport.New(dev, ctrl, hostport.Config{Device: "pipe"})
	defer port.Close()

	m, err := uartline.New(port, ctrl, uartline.Config{Interrupts: true})
	require.NoError(t, err)
	defer m.Close()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 3)
		_, err := io.ReadFull(peer, buf)
		if err != nil {
			got <- err.Error()
			return
		}
		got <- string(buf)
	}()

	require.Equal(t, 3, m.PrintLine([]byte("ack\x00junk")))
	select {
	case s := <-got:
		require.Equal(t, "ack", s)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for transmit")
	}
	require.NoError(t, port.Err())
}

func TestPort_WriteErrorRecorded(t *testing.T) {
	dev, peer := net.Pipe()
	port := hostport.New(dev, nil, hostport.Config{Device: "pipe"})
	peer.Close()

	port.PutByte('x')
	port.PutByte('y')
	require.Error(t, port.Err())
	require.ErrorIs(t, port.Err(), io.ErrClosedPipe)
	require.True(t, port.Writable())
	require.NoError(t, port.Close())
}

func TestPort_Overrun(t *testing.T) {
	dev, peer := net.Pipe()
	defer peer.Close()

	port := hostport.New(dev, nil, hostport.Config{Device: "pipe", FIFODepth: 4})
	defer port.Close()

	go peer.Write([]byte("abcdefgh"))

	require.Eventually(t, func() bool { return port.Overruns() == 4 }, 2*time.Second, 5*time.Millisecond)
	var got []byte
	for port.Readable() {
		got = append(got, port.GetByte())
	}
	require.Equal(t, "abcd", string(got))
}

func TestPort_CloseStopsPump(t *testing.T) {
	dev, peer := net.Pipe()
	defer peer.Close()

	ctrl := softirq.New()
	port := hostport.New(dev, ctrl, hostport.Config{Device: "pipe"})

	done := make(chan error, 1)
	go func() { done <- port.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Close hung")
	}
	require.NoError(t, port.Close())
	require.True(t, errors.Is(port.Configure(uartline.NoPin, uartline.NoPin), hostport.ErrClosed))
}

func TestPort_Defaults(t *testing.T) {
	dev, peer := net.Pipe()
	defer peer.Close()

	port := hostport.New(dev, nil, hostport.Config{Device: "pipe", Baud: 9600})
	defer port.Close()

	require.Equal(t, hostport.DefaultIRQ, port.IRQ())
	require.Equal(t, uint32(9600), port.Baud())

	// No baud setter for a plain stream; the requested rate is still recorded.
	port.SetBaudRate(57600)
	require.Equal(t, uint32(57600), port.Baud())

	cfg := hostport.DefaultConfig("/dev/ttyUSB0")
	require.Equal(t, uartline.DefaultBaudRate, cfg.Baud)
	require.Equal(t, 100*time.Millisecond, cfg.ReadTimeout)
}

func TestOpenTarm_RequiresDevice(t *testing.T) {
	_, err := hostport.OpenTarm(hostport.Config{}, nil)
	require.Error(t, err)
}
