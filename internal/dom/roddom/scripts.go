package roddom

// bindingName is the window function the page calls with a registry id.
const bindingName = "__autofinishNotify"

// Every listener or observer installed in the page stores its release
// function in window.__autofinish under the registry id.

const listenJS = `(name, id, event, once) => {
	const w = window;
	w.__autofinish = w.__autofinish || {};
	const fn = () => (w[name] || w.top[name])(id);
	w.__autofinish[id] = () => this.removeEventListener(event, fn);
	this.addEventListener(event, fn, { once });
}`

const observeJS = `(name, id) => {
	const w = window;
	w.__autofinish = w.__autofinish || {};
	const obs = new MutationObserver(() => (w[name] || w.top[name])(id));
	obs.observe(this, { childList: true, subtree: true });
	w.__autofinish[id] = () => obs.disconnect();
}`

const releaseJS = `(id) => {
	const w = window;
	const release = w.__autofinish && w.__autofinish[id];
	if (release) {
		release();
		delete w.__autofinish[id];
	}
}`

const suppressJS = `(event) => document.addEventListener(event, e => e.stopPropagation(), true)`

const tagNameJS = `() => this.tagName`

const hasClassJS = `(name) => this.classList.contains(name)`

const clickJS = `() => this.click()`

const appendFrameJS = `(src) => {
	const frame = document.createElement('iframe');
	frame.src = src;
	this.appendChild(frame);
	return frame;
}`

// frameReadyJS is true once a same-origin frame finished loading its src.
// The initial about:blank document of a frame with a src does not count. The
// document of a cross-origin frame is not readable and is treated as ready.
const frameReadyJS = `() => {
	try {
		const doc = this.contentDocument;
		if (doc === null) {
			return true;
		}
		if (doc.readyState !== 'complete') {
			return false;
		}
		const src = this.getAttribute('src');
		return !src || src === 'about:blank' || doc.URL !== 'about:blank';
	} catch (e) {
		return true;
	}
}`

const playJS = `() => this.play()`

const volumeJS = `(v) => { this.volume = v; }`
