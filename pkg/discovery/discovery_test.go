package discovery

import "testing"

func TestServiceInstanceKey(t *testing.T) {
	i := &ServiceInstance{Name: "shopbot", Protocol: "grpc", Host: "10.0.0.5", Port: 50051}
	if got := i.Key("/services/"); got != "/services/shopbot/grpc/10.0.0.5:50051" {
		t.Fatalf("key = %s", got)
	}
}
