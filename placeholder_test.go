package docforge

import "testing"

func TestResolveText_Basic(t *testing.T) {
	rec := Record{
		"Shipment__c.Name":      "SHP-001",
		"Shipment__c.Port":      nil,
		"Shipment__c.Subtotal":  float64(1234567.891),
		"Shipment__c.Issued__c": "2024-03-07T00:00:00.000+0000",
	}

	cases := []struct {
		in, want string
	}{
		{"Номер: {{Shipment__c.Name}}", "Номер: SHP-001"},
		{"{{Shipment__c.Port}}", ""},
		{`{{Shipment__c.Subtotal\# #,##0.##}}`, "1,234,567.89"},
		{`{{Shipment__c.Issued__c\@dd/MM/yyyy}}`, "07/03/2024"},
		// неизвестный путь остаётся до финального прохода
		{"{{Unknown.Path}}", "{{Unknown.Path}}"},
		// маркеры таблиц резолвер не трогает
		{"{{TableStart:Items}}{{Shipment__c.Name}}", "{{TableStart:Items}}SHP-001"},
		// без токенов текст не меняется
		{"просто текст", "просто текст"},
	}
	for _, c := range cases {
		if got := ResolveText(c.in, rec); got != c.want {
			t.Errorf("ResolveText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolveText_NoneStrippedOnlyAfterSubstitution(t *testing.T) {
	rec := Record{"A": nil}
	if got := ResolveText("X: {{A}} None", rec); got != "X:  " {
		t.Errorf("остаток None должен вычищаться после подстановки, got %q", got)
	}
	// без подстановок литерал None в статическом тексте неприкосновенен
	if got := ResolveText("None of the above {{B}}", rec); got != "None of the above {{B}}" {
		t.Errorf("статический None тронут: %q", got)
	}
}

func TestResolveText_Idempotent(t *testing.T) {
	rec := Record{"Contract__c.Name": "C-42"}
	once := ResolveText("№ {{Contract__c.Name}} / {{Missing}}", rec)
	twice := ResolveText(once, rec)
	if once != twice {
		t.Errorf("повторный резолв изменил текст: %q -> %q", once, twice)
	}
}

func TestResolveText_IfBlocks(t *testing.T) {
	rec := Record{
		"Contract__c.Incoterms__c": "FOB",
		"Contract__c.Deposit__c":   30.0,
	}
	cases := []struct {
		in, want string
	}{
		// квотированная форма равенства, регистр не важен
		{"{{#if Contract__c.Incoterms__c '==' 'fob'}}порт отгрузки{{else}}склад{{/if}}", "порт отгрузки"},
		{"{{#if Contract__c.Incoterms__c == 'CIF'}}да{{else}}нет{{/if}}", "нет"},
		// общее условие через expr
		{"{{#if Contract__c.Deposit__c > 10}}аванс{{else}}без аванса{{/if}}", "аванс"},
	}
	for _, c := range cases {
		if got := ResolveText(c.in, rec); got != c.want {
			t.Errorf("ResolveText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStripTokens(t *testing.T) {
	in := "до {{TableStart:X}} середина {{Path.Y}} после"
	want := "до  середина  после"
	if got := StripTokens(in); got != want {
		t.Errorf("StripTokens = %q, want %q", got, want)
	}
}

func TestCoerceNumeric(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,234.50", 1234.5, true},
		{"42", 42, true},
		{"-7.25", -7.25, true},
		{"0.5", 0.5, true},
		{"0123", 0, false}, // артикул с ведущим нулём
		{"", 0, false},
		{"12 pcs", 0, false},
		{"inf", 0, false},
		{"NaN", 0, false},
	}
	for _, c := range cases {
		got, ok := CoerceNumeric(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("CoerceNumeric(%q) = %v,%v, want %v,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1234.5, "1,234.50"},
		{1234567.891, "1,234,567.89"},
		{0, "0.00"},
		{-9876.5, "-9,876.50"},
		{999, "999.00"},
	}
	for _, c := range cases {
		if got := FormatThousands(c.in); got != c.want {
			t.Errorf("FormatThousands(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatCheckboxes(t *testing.T) {
	got := FormatCheckboxes([]string{"Sea", "Air", "Land"}, " sea ", false)
	want := "☑ Sea\n☐ Air\n☐ Land"
	if got != want {
		t.Errorf("FormatCheckboxes = %q, want %q", got, want)
	}

	got = FormatCheckboxes([]string{"Sea", "Air"}, "AIR", true)
	want = "☐ SEA\n☑ AIR"
	if got != want {
		t.Errorf("FormatCheckboxes uppercase = %q, want %q", got, want)
	}

	if got := FormatCheckboxes(nil, "Sea", false); got != "" {
		t.Errorf("пустой пиклист должен давать пустую строку, got %q", got)
	}
}
