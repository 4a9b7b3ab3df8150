package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver IP 到国家的解析接口，解析失败返回空字符串
type Resolver interface {
	Country(ip string) string
	Close() error
}

// MaxMindResolver 基于 MaxMind GeoLite2 mmdb 文件的解析器
type MaxMindResolver struct {
	reader *geoip2.Reader
}

// NewMaxMindResolver 打开 mmdb 文件并创建解析器
func NewMaxMindResolver(path string) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开 GeoIP 数据库失败: %v", err)
	}
	return &MaxMindResolver{reader: reader}, nil
}

// Country 返回英文国家名，查不到时退回 ISO 代码，再查不到返回空
func (r *MaxMindResolver) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := r.reader.Country(parsed)
	if err != nil {
		return ""
	}
	if name, ok := record.Country.Names["en"]; ok && name != "" {
		return name
	}
	return record.Country.IsoCode
}

// Close 关闭底层数据库
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

// NoopResolver 未配置 mmdb 时使用的空实现
type NoopResolver struct{}

func (NoopResolver) Country(string) string { return "" }
func (NoopResolver) Close() error          { return nil }
