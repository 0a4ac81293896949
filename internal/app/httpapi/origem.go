package httpapi

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type Opcao func(*API)

// ComProxiesConfiaveis habilita X-Forwarded-For apenas quando a conexão vem de um desses prefixos.
func ComProxiesConfiaveis(prefixos []netip.Prefix) Opcao {
	return func(a *API) { a.proxies = prefixos }
}

func (a *API) confiavel(addr netip.Addr) bool {
	for _, p := range a.proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// origem é a chave do rate limit de login. Sem proxy confiável vale só o RemoteAddr; atrás de um,
// o X-Forwarded-For é lido da direita para a esquerda até o primeiro salto que não é proxy.
func (a *API) origem(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	remoto, err := netip.ParseAddr(host)
	if err != nil || !a.confiavel(remoto.Unmap()) {
		return host
	}

	saltos := strings.Split(strings.Join(r.Header.Values("X-Forwarded-For"), ","), ",")
	for i := len(saltos) - 1; i >= 0; i-- {
		salto, err := netip.ParseAddr(strings.TrimSpace(saltos[i]))
		if err != nil {
			return host
		}
		salto = salto.Unmap()
		if !a.confiavel(salto) {
			return salto.String()
		}
	}
	return host
}
