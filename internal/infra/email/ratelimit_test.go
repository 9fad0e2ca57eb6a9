package email

import "testing"

func TestIPLimiter_BudgetExhaustion(t *testing.T) {
	l := NewIPLimiter(5)

	for i := 0; i < 5; i++ {
		if !l.Allow("203.0.113.7") {
			t.Fatalf("send %d should be within budget", i+1)
		}
	}
	if l.Allow("203.0.113.7") {
		t.Fatal("6th send within the hour should be rejected")
	}
}

func TestIPLimiter_PerIPIsolation(t *testing.T) {
	l := NewIPLimiter(1)

	if !l.Allow("203.0.113.7") {
		t.Fatal("first IP should be allowed")
	}
	if !l.Allow("203.0.113.8") {
		t.Fatal("second IP has its own budget")
	}
	if l.Allow("203.0.113.7") {
		t.Fatal("first IP budget should be spent")
	}
}
