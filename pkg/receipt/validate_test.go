package receipt

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountNeedle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"150", "15000"},
		{"150.00", "15000"},
		{"99.9", "9990"},
		{"1234.56", "123456"},
	}
	for _, c := range cases {
		got := amountNeedle(decimal.RequireFromString(c.in))
		if got != c.want {
			t.Errorf("amountNeedle(%s) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanRecognized(t *testing.T) {
	got := cleanRecognized("Comprovante PIX\n Valor: R$ 1 5 0 0 0\tOK")
	want := "comprovantepixvalor:r$15000ok"
	if got != want {
		t.Fatalf("cleanRecognized = %q, want %q", got, want)
	}
}

func TestMatchRule(t *testing.T) {
	expected := decimal.RequireFromString("150")
	needle := amountNeedle(expected)

	accepted := cleanRecognized("Pagamento efetuado R$15000 obrigado")
	if !strings.Contains(accepted, needle) {
		t.Fatalf("expected %q to contain %q", accepted, needle)
	}

	// the comma form is NOT stripped from the haystack, so a receipt
	// printing "150,00" is a documented false negative
	rejected := cleanRecognized("Valor pago R$ 150,00")
	if strings.Contains(rejected, needle) {
		t.Fatalf("did not expect %q to contain %q", rejected, needle)
	}
}
