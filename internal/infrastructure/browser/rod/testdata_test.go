package rod

const (
	IntakeHTML = `<!DOCTYPE html>
<html>
<head><title>Patient Intake</title></head>
<body>
	<h1>Patient Intake</h1>
	<form id="intake" action="/done" method="get">
		<label for="first">First Name</label>
		<input id="first" type="text" name="firstName" />
		<label for="last">Last Name</label>
		<input id="last" type="text" name="lastName" value="Smith" />
		<input type="hidden" name="csrf" value="t0k3n" />
		<label for="gender">Gender</label>
		<select id="gender" name="gender">
			<option value="">Choose</option>
			<option value="f">Female</option>
			<option value="m">Male</option>
		</select>
		<label for="allergies">Allergies</label>
		<textarea id="allergies" name="allergies"></textarea>
		<button type="submit">Submit</button>
	</form>
</body>
</html>`

	DoneHTML = `<!DOCTYPE html>
<html><body><h2>Thank you</h2></body></html>`

	AmbiguousHTML = `<!DOCTYPE html>
<html>
<body>
	<label for="a">Phone</label><input id="a" type="text" />
	<label for="b">Phone</label><input id="b" type="text" />
	<button>Save</button>
	<div role="button" aria-label="Save">icon</div>
</body>
</html>`
)
