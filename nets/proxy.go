package nets

import (
	"context"
	"net"
	"net/url"
	"os"
	"sync"

	"github.com/reusee/hanalyzer/configs"
	"github.com/reusee/hanalyzer/logs"
	"github.com/reusee/hanalyzer/modes"
	"github.com/reusee/hanalyzer/vars"
	"golang.org/x/net/proxy"
)

type ProxyAddr string

func (Module) ProxyAddr(
	mode modes.Mode,
	loader configs.Loader,
	logger logs.Logger,
) (ret ProxyAddr) {
	if mode == modes.ModeDevelopment {
		return ""
	}
	defer func() {
		if ret != "" {
			logger.Info("proxy", "addr", ret)
		}
	}()
	return vars.FirstNonZero(
		configs.First[ProxyAddr](loader, "proxy_addr"),
		ProxyAddr(os.Getenv("ALL_PROXY")),
		ProxyAddr(os.Getenv("all_proxy")),
		ProxyAddr(os.Getenv("HTTP_PROXY")),
		ProxyAddr(os.Getenv("http_proxy")),
	)
}

type GetProxyDialer func() (Dialer, error)

func (Module) GetProxyDialer(
	proxyAddr ProxyAddr,
) GetProxyDialer {
	direct := &net.Dialer{}
	return sync.OnceValues(func() (Dialer, error) {
		if proxyAddr == "" {
			return direct, nil
		}
		u, err := url.Parse(string(proxyAddr))
		if err != nil {
			return nil, err
		}
		if u.Scheme == "socks" {
			u.Scheme = "socks5"
		}
		proxyDialer, err := proxy.FromURL(u, direct)
		if err != nil {
			return nil, err
		}
		dialer, ok := proxyDialer.(Dialer)
		if !ok {
			return DialerFunc(func(_ context.Context, network, addr string) (net.Conn, error) {
				return proxyDialer.Dial(network, addr)
			}), nil
		}
		return dialer, nil
	})
}
