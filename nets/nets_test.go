package nets

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reusee/dscope"
	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/modes"
)

func testScope(t *testing.T) dscope.Scope {
	return dscope.New(
		modes.ForTest(t),
		new(Module),
	).Fork(
		dscope.Provide(configs.NewLoader(nil, "")),
	)
}

func TestIsLocalAddr(t *testing.T) {
	testScope(t).Call(func(
		isLocalAddr IsLocalAddr,
	) {
		for addr, expected := range map[string]bool{
			"127.0.0.1:10000":        true,
			"192.168.64.2:50051":     true,
			"10.1.2.3":               true,
			"[::1]:80":               true,
			"8.8.8.8:53":             false,
			"no-such-host.invalid:1": false,
		} {
			if got := isLocalAddr(addr); got != expected {
				t.Fatalf("%s: got %v", addr, got)
			}
		}
	})
}

func TestHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	testScope(t).Call(func(
		client HTTPClient,
		proxyAddr ProxyAddr,
	) {
		if proxyAddr != "" {
			t.Fatalf("got %v", proxyAddr)
		}
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("got %v", resp.StatusCode)
		}
	})
}

func TestIsLocalIP(t *testing.T) {
	if !isLocalIP(net.ParseIP("169.254.1.1")) {
		t.Fatal()
	}
}
