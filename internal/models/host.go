package models

// Host is one reverse-proxy routing entry: a site name forwarded to an upstream.
type Host struct {
	Name   string `json:"name" binding:"required,sitename"`
	IP     string `json:"ip" binding:"required,upstreamhost"`
	Port   uint16 `json:"port" binding:"required,min=1,max=65535"`
	Scheme string `json:"scheme" binding:"required,oneof=http https"`
}

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)
